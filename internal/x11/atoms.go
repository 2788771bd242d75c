package x11

import (
	"fmt"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

type Atoms struct {
	WMState         xproto.Atom
	WMName          xproto.Atom
	NetWMName       xproto.Atom
	UTF8String      xproto.Atom
	NetWMIcon       xproto.Atom
	NetActiveWindow xproto.Atom
}

func internAtom(conn *xgb.Conn, name string) (xproto.Atom, error) {
	reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, fmt.Errorf("intern atom %s: %w", name, err)
	}
	return reply.Atom, nil
}

func InternAtoms(conn *xgb.Conn) (Atoms, error) {
	wmState, err := internAtom(conn, "WM_STATE")
	if err != nil {
		return Atoms{}, err
	}
	wmName, err := internAtom(conn, "WM_NAME")
	if err != nil {
		return Atoms{}, err
	}
	netWMName, err := internAtom(conn, "_NET_WM_NAME")
	if err != nil {
		return Atoms{}, err
	}
	utf8String, err := internAtom(conn, "UTF8_STRING")
	if err != nil {
		return Atoms{}, err
	}
	netWMIcon, err := internAtom(conn, "_NET_WM_ICON")
	if err != nil {
		return Atoms{}, err
	}
	netActiveWindow, err := internAtom(conn, "_NET_ACTIVE_WINDOW")
	if err != nil {
		return Atoms{}, err
	}

	return Atoms{
		WMState:         wmState,
		WMName:          wmName,
		NetWMName:       netWMName,
		UTF8String:      utf8String,
		NetWMIcon:       netWMIcon,
		NetActiveWindow: netActiveWindow,
	}, nil
}
