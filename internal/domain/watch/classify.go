package watch

import (
	"github.com/fsnotify/fsnotify"

	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/infrastructure/eventbus"
)

// kindFor classifies an fsnotify operation. fsnotify reports a rename as a
// from/to pair: Rename on the old name, then Create on the new one. The old
// name is reported as removed and the new one as created. fsnotify never
// delivers a matched pair, so ChangeRename is not produced here.
func kindFor(op fsnotify.Op) (eventbus.ChangeKind, bool) {
	switch {
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return eventbus.ChangeRemove, true
	case op.Has(fsnotify.Create):
		return eventbus.ChangeCreate, true
	case op.Has(fsnotify.Write), op.Has(fsnotify.Chmod):
		return eventbus.ChangeModify, true
	}
	return "", false
}
