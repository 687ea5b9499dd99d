package main

import (
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"syscall"

	"github.com/BurntSushi/xgb/xproto"
)

// initBindings builds the binding maps from the configuration and
// establishes the passive grabs.
func (wm *WM) initBindings() error {
	root, err := wm.buildBindingMap(wm.cfg.Keys, wm.cfg.Buttons)
	if err != nil {
		return err
	}
	wm.bindings = NewBindings(wm.keymap, root)
	wm.grabBindings()
	return nil
}

func (wm *WM) buildBindingMap(keys map[string]BindingValue, buttons map[string]string) (*BindingMap, error) {
	m := NewBindingMap()
	for spec, value := range keys {
		mods, sym, err := ParseKeyChord(spec)
		if err != nil {
			return nil, err
		}
		bind, err := wm.buildBinding(value)
		if err != nil {
			return nil, fmt.Errorf("binding %q: %w", spec, err)
		}
		m.BindKey(mods, sym, bind)
	}
	for spec, action := range buttons {
		mods, button, err := ParseButtonChord(spec)
		if err != nil {
			return nil, err
		}
		do, err := wm.actionByName(action)
		if err != nil {
			return nil, fmt.Errorf("binding %q: %w", spec, err)
		}
		m.BindButton(mods, button, &Binding{Do: do, Name: action})
	}
	return m, nil
}

func (wm *WM) buildBinding(value BindingValue) (*Binding, error) {
	if value.Prefix != nil {
		nested, err := wm.buildBindingMap(value.Prefix, nil)
		if err != nil {
			return nil, err
		}
		return &Binding{Prefix: nested}, nil
	}
	do, err := wm.actionByName(value.Action)
	if err != nil {
		return nil, err
	}
	return &Binding{Do: do, Name: value.Action}, nil
}

// grabBindings (re-)establishes the passive key and button grabs on
// the root for every top-level chord, covering all lock states.
func (wm *WM) grabBindings() {
	xproto.UngrabKey(wm.xc, xproto.GrabAny, wm.root, xproto.ModMaskAny)
	xproto.UngrabButton(wm.xc, xproto.ButtonIndexAny, wm.root, xproto.ModMaskAny)

	for chord := range wm.bindings.root.keys {
		for _, code := range wm.keymap.Keycodes(chord.sym) {
			for _, lock := range wm.keymap.lockVariants() {
				xproto.GrabKey(wm.xc, false, wm.root, chord.mods|lock, code,
					xproto.GrabModeAsync, xproto.GrabModeAsync)
			}
		}
	}
	for chord := range wm.bindings.root.buttons {
		for _, lock := range wm.keymap.lockVariants() {
			xproto.GrabButton(wm.xc, false, wm.root,
				uint16(xproto.EventMaskButtonPress|xproto.EventMaskButtonRelease),
				xproto.GrabModeAsync, xproto.GrabModeAsync,
				xproto.WindowNone, xproto.CursorNone,
				byte(chord.button), chord.mods|lock)
		}
	}
}

// clientFromInput resolves the client an action targets: the frame
// under the pointer, else the focused client.
func (wm *WM) clientFromInput(in Input) *Client {
	if c, ok := wm.frames[in.Child]; ok {
		return c
	}
	return wm.focused
}

func (wm *WM) actionByName(name string) (Action, error) {
	switch name {
	case "spawn-terminal":
		return func(Input) error { return spawn(wm.cfg.Terminal) }, nil
	case "shell-prompt":
		return func(in Input) error {
			_, err := NewMinibuffer(wm, "Shell command: ", "", func(command string) {
				if command != "" {
					if err := spawn(command); err != nil {
						wm.log.Warn("spawn", "command", command, "error", err)
					}
				}
			}, func() {}, in.Time)
			return err
		}, nil
	case "tagset-prompt":
		return func(in Input) error {
			_, err := NewMinibuffer(wm, "Tagset: ", "", func(spec string) {
				if spec == "" {
					return
				}
				if _, err := ParseTagSpec(spec); err != nil {
					wm.log.Warn("tagset spec", "error", err)
					return
				}
				wm.sendTagsetExpression(spec)
			}, func() {}, in.Time)
			return err
		}, nil
	case "delete-window":
		return func(in Input) error {
			if c := wm.clientFromInput(in); c != nil {
				c.Delete(in.Time)
			}
			return nil
		}, nil
	case "quit":
		return func(Input) error { return errQuit }, nil
	case "cycle-next":
		return func(in Input) error { wm.StartFocusCycle(in, +1); return nil }, nil
	case "cycle-prev":
		return func(in Input) error { wm.StartFocusCycle(in, -1); return nil }, nil
	case "toggle-fullscreen":
		return wm.clientAction(func(c *Client, in Input) {
			c.SetFullscreen(!c.Net.Fullscreen)
		}), nil
	case "toggle-maximize":
		return wm.clientAction(func(c *Client, in Input) {
			max := !(c.Net.MaxHorz && c.Net.MaxVert)
			c.SetMaximized(max, max)
		}), nil
	case "toggle-maximize-horz":
		return wm.clientAction(func(c *Client, in Input) {
			c.SetMaximized(!c.Net.MaxHorz, c.Net.MaxVert)
		}), nil
	case "toggle-maximize-vert":
		return wm.clientAction(func(c *Client, in Input) {
			c.SetMaximized(c.Net.MaxHorz, !c.Net.MaxVert)
		}), nil
	case "move-window":
		return wm.clientAction(func(c *Client, in Input) {
			wm.MoveWindow(c, in, 0)
		}), nil
	case "resize-window":
		return wm.clientAction(func(c *Client, in Input) {
			wm.ResizeWindow(c, in)
		}), nil
	case "raise-window":
		return wm.clientAction(func(c *Client, in Input) { c.Raise() }), nil
	case "lower-window":
		return wm.clientAction(func(c *Client, in Input) { c.Lower() }), nil
	case "raise-and-move":
		return wm.clientAction(func(c *Client, in Input) {
			c.Raise()
			wm.MoveWindow(c, in, 5)
		}), nil
	case "edit-tags":
		return wm.clientAction(func(c *Client, in Input) {
			wm.editClientTags(c, in.Time)
		}), nil
	case "iconify":
		return wm.clientAction(func(c *Client, in Input) {
			c.Iconify()
			wm.EnsureFocus(in.Time)
		}), nil
	}
	return nil, fmt.Errorf("unknown action %q", name)
}

func (wm *WM) clientAction(fn func(c *Client, in Input)) Action {
	return func(in Input) error {
		if c := wm.clientFromInput(in); c != nil {
			fn(c, in)
		}
		return nil
	}
}

func (wm *WM) titlebarAction(c *Client, button xproto.Button) (Action, bool) {
	name, ok := wm.cfg.Titlebar[fmt.Sprintf("button%d", button)]
	if !ok {
		return nil, false
	}
	do, err := wm.actionByName(name)
	if err != nil {
		wm.log.Warn("titlebar binding", "error", err)
		return nil, false
	}
	return do, true
}

// editClientTags turns the titlebar into an input field seeded with
// the client's tags, comma-separated; committing writes _DIM_TAGS.
func (wm *WM) editClientTags(c *Client, time xproto.Timestamp) {
	if c.deco == nil {
		return
	}
	names := make([]string, 0, len(c.Tags))
	for _, tag := range c.Tags {
		if name, err := wm.atoms.Name(tag); err == nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	c.deco.ReadFromUser("Tags: ", strings.Join(names, ", "), func(value string) {
		var atoms []xproto.Atom
		for _, name := range strings.Split(value, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if atom, err := wm.atoms.Intern(name); err == nil {
				atoms = append(atoms, atom)
			}
		}
		wm.props.SetAtomList(c.Window, "_DIM_TAGS", atoms)
	}, func() {}, time)
}

// sendTagsetExpression stores the spec on the root and posts the
// update message, the same path remote controllers use.
func (wm *WM) sendTagsetExpression(spec string) {
	wm.props.SetUTF8String(wm.root, "_DIM_TAGSET_EXPRESSION", spec)
	wm.sendRootMessage(wm.atomDimTagsetUpdate, uint32(wm.eventTime))
}

// spawn runs a shell command detached from the manager: a lost child
// never becomes our zombie or takes us down.
func spawn(command string) error {
	cmd := exec.Command("/bin/sh", "-c", command)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait()
	return nil
}
