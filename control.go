package main

import (
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

// controlConn is a short-lived second connection used to signal the
// running manager: tagset switches, exit, restart and exec.
type controlConn struct {
	xc    *xgb.Conn
	root  xproto.Window
	atoms *AtomCache
}

func dialControl(display string) (*controlConn, error) {
	xc, err := xgb.NewConnDisplay(display)
	if err != nil {
		return nil, err
	}
	return &controlConn{
		xc:    xc,
		root:  xproto.Setup(xc).DefaultScreen(xc).Root,
		atoms: NewAtomCache(xc),
	}, nil
}

func (cc *controlConn) close() {
	cc.xc.Close()
}

func (cc *controlConn) sendRootMessage(kind xproto.Atom, data ...uint32) {
	var d [5]uint32
	copy(d[:], data)
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: cc.root,
		Type:   kind,
		Data:   xproto.ClientMessageDataUnionData32New(d[:]),
	}
	xproto.SendEvent(cc.xc, false, cc.root,
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskStructureNotify,
		string(ev.Bytes()))
}

// SendTagset validates a tagset spec locally, stores it in
// _DIM_TAGSET_EXPRESSION on the root and posts the update message.
func SendTagset(display, spec string) error {
	if _, err := ParseTagSpec(spec); err != nil {
		return err
	}
	cc, err := dialControl(display)
	if err != nil {
		return err
	}
	defer cc.close()

	exprAtom, err := cc.atoms.Intern("_DIM_TAGSET_EXPRESSION")
	if err != nil {
		return err
	}
	utf8Atom, err := cc.atoms.Intern("UTF8_STRING")
	if err != nil {
		return err
	}
	updateAtom, err := cc.atoms.Intern("_DIM_TAGSET_UPDATE")
	if err != nil {
		return err
	}
	if err := xproto.ChangePropertyChecked(cc.xc, xproto.PropModeReplace, cc.root,
		exprAtom, utf8Atom, 8, uint32(len(spec)), []byte(spec)).Check(); err != nil {
		return err
	}
	cc.sendRootMessage(updateAtom)
	cc.xc.Sync()
	return nil
}

// SendExit asks the manager to exit: a zero (CurrentTime) timestamp
// means no restart.
func SendExit(display string) error {
	cc, err := dialControl(display)
	if err != nil {
		return err
	}
	defer cc.close()

	exitAtom, err := cc.atoms.Intern("_DIM_WM_EXIT")
	if err != nil {
		return err
	}
	cc.sendRootMessage(exitAtom, 0)
	cc.xc.Sync()
	return nil
}

// SendRestart touches WM_COMMAND on the root and sends the exit
// message stamped with the touch's PropertyNotify timestamp, making
// the manager exec its recorded argv.
func SendRestart(display string) error {
	return sendCommandAndExit(display, nil)
}

// SendExec replaces WM_COMMAND with argv before the exit message, so
// the manager execs the given command in place.
func SendExec(display string, argv []string) error {
	if len(argv) == 0 {
		return fmt.Errorf("empty exec argv")
	}
	return sendCommandAndExit(display, argv)
}

func sendCommandAndExit(display string, argv []string) error {
	cc, err := dialControl(display)
	if err != nil {
		return err
	}
	defer cc.close()

	// Watch the root so the WM_COMMAND write yields a PropertyNotify
	// with a server timestamp for the exit message.
	if err := xproto.ChangeWindowAttributesChecked(cc.xc, cc.root,
		xproto.CwEventMask, []uint32{xproto.EventMaskPropertyChange}).Check(); err != nil {
		return err
	}

	cmdAtom, err := cc.atoms.Intern("WM_COMMAND")
	if err != nil {
		return err
	}
	utf8Atom, err := cc.atoms.Intern("UTF8_STRING")
	if err != nil {
		return err
	}
	exitAtom, err := cc.atoms.Intern("_DIM_WM_EXIT")
	if err != nil {
		return err
	}

	if argv == nil {
		// A zero-length append keeps the value but stamps a notify.
		err = xproto.ChangePropertyChecked(cc.xc, xproto.PropModeAppend, cc.root,
			cmdAtom, utf8Atom, 8, 0, nil).Check()
	} else {
		data := []byte{}
		for _, arg := range argv {
			data = append(data, arg...)
			data = append(data, 0)
		}
		err = xproto.ChangePropertyChecked(cc.xc, xproto.PropModeReplace, cc.root,
			cmdAtom, utf8Atom, 8, uint32(len(data)), data).Check()
	}
	if err != nil {
		return err
	}

	for {
		ev, xerr := cc.xc.WaitForEvent()
		if ev == nil && xerr == nil {
			return fmt.Errorf("connection closed waiting for PropertyNotify")
		}
		if xerr != nil {
			return fmt.Errorf("waiting for PropertyNotify: %s", xerr.Error())
		}
		if e, ok := ev.(xproto.PropertyNotifyEvent); ok && e.Atom == cmdAtom {
			cc.sendRootMessage(exitAtom, uint32(e.Time))
			cc.xc.Sync()
			return nil
		}
	}
}
