package lesson

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/llehouerou/k12listen/internal/apperr"
)

// Unit is an ordered group of lessons from one textbook unit.
type Unit struct {
	ID      string
	Name    string
	Lessons []*Lesson
}

// UnitFile is the on-disk unit descriptor. Each entry of lessons is either the
// path of a lesson file, relative to the unit file, or an inline lesson.
type UnitFile struct {
	ID      string            `json:"id"`
	Name    string            `json:"name" validate:"required,max=200"`
	Lessons []json.RawMessage `json:"lessons" validate:"required,min=1"`
}

// LoadUnit reads and validates a unit file and every lesson it lists.
func (l *Loader) LoadUnit(name string) (*Unit, error) {
	data, err := afero.ReadFile(l.fs, name)
	if err != nil {
		return nil, apperr.InvalidLesson("read unit "+name, err)
	}
	return l.decodeUnit(name, data)
}

// LoadAll reads lesson and unit files in order and returns their lessons as
// one list. A unit contributes all of its lessons.
func (l *Loader) LoadAll(names ...string) ([]*Lesson, error) {
	var lessons []*Lesson
	for _, name := range names {
		data, err := afero.ReadFile(l.fs, name)
		if err != nil {
			return nil, apperr.InvalidLesson("read lesson "+name, err)
		}
		if !isUnit(data) {
			lesson, err := l.decode(name, data)
			if err != nil {
				return nil, err
			}
			lessons = append(lessons, lesson)
			continue
		}
		unit, err := l.decodeUnit(name, data)
		if err != nil {
			return nil, err
		}
		lessons = append(lessons, unit.Lessons...)
	}
	if len(lessons) == 0 {
		return nil, apperr.InvalidLesson("no lessons given", nil)
	}
	return lessons, nil
}

func (l *Loader) decodeUnit(name string, data []byte) (*Unit, error) {
	var f UnitFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, apperr.InvalidLesson("decode unit "+name, err)
	}
	if err := l.validate.Struct(f); err != nil {
		return nil, apperr.InvalidLesson("unit validation failed", describe(err))
	}

	dir := filepath.Dir(name)
	unit := &Unit{ID: f.ID, Name: f.Name, Lessons: make([]*Lesson, 0, len(f.Lessons))}
	for i, raw := range f.Lessons {
		lesson, err := l.unitEntry(dir, bytes.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("unit %s lesson %d: %w", name, i+1, err)
		}
		unit.Lessons = append(unit.Lessons, lesson)
	}
	return unit, nil
}

func (l *Loader) unitEntry(dir string, raw []byte) (*Lesson, error) {
	switch {
	case len(raw) > 0 && raw[0] == '"':
		var ref string
		if err := json.Unmarshal(raw, &ref); err != nil {
			return nil, apperr.InvalidLesson("decode lesson path", err)
		}
		return l.Load(resolve(dir, ref))
	case len(raw) > 0 && raw[0] == '{':
		var f File
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, apperr.InvalidLesson("decode lesson", err)
		}
		return l.build(f, dir)
	default:
		return nil, apperr.InvalidLesson("lesson entry must be a path or an object", errors.New(string(raw)))
	}
}

// isUnit reports whether data is a JSON object with a lessons field.
func isUnit(data []byte) bool {
	var head struct {
		Lessons json.RawMessage `json:"lessons"`
	}
	return json.Unmarshal(data, &head) == nil && len(head.Lessons) > 0
}
