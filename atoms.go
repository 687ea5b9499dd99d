package main

import (
	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

// AtomCache is a write-through cache of atom name⇄id pairs. Lookups
// are synchronous with respect to the connection.
type AtomCache struct {
	xc    *xgb.Conn
	atoms map[string]xproto.Atom
	names map[xproto.Atom]string
}

func NewAtomCache(xc *xgb.Conn) *AtomCache {
	return &AtomCache{
		xc:    xc,
		atoms: make(map[string]xproto.Atom),
		names: make(map[xproto.Atom]string),
	}
}

// Prime interns a batch of names with pipelined requests.
func (ac *AtomCache) Prime(names ...string) error {
	cookies := make([]xproto.InternAtomCookie, len(names))
	for i, name := range names {
		cookies[i] = xproto.InternAtom(ac.xc, false, uint16(len(name)), name)
	}
	for i, cookie := range cookies {
		reply, err := cookie.Reply()
		if err != nil {
			return err
		}
		ac.atoms[names[i]] = reply.Atom
		ac.names[reply.Atom] = names[i]
	}
	return nil
}

// Intern returns the atom for a name, fetching and caching it if absent.
func (ac *AtomCache) Intern(name string) (xproto.Atom, error) {
	if atom, ok := ac.atoms[name]; ok {
		return atom, nil
	}
	reply, err := xproto.InternAtom(ac.xc, false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, err
	}
	ac.atoms[name] = reply.Atom
	ac.names[reply.Atom] = name
	return reply.Atom, nil
}

// Name returns the name of an atom, fetching and caching it if absent.
func (ac *AtomCache) Name(atom xproto.Atom) (string, error) {
	if name, ok := ac.names[atom]; ok {
		return name, nil
	}
	reply, err := xproto.GetAtomName(ac.xc, atom).Reply()
	if err != nil {
		return "", err
	}
	ac.names[atom] = reply.Name
	ac.atoms[reply.Name] = atom
	return reply.Name, nil
}
