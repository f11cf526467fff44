package client

import (
	"strings"
	"sync"

	"github.com/stemsi/courseware/internal/model"
)

// Directory maps student ids to emails and back. Callers identify students
// by id; roster endpoints that want an email go through here.
type Directory struct {
	mu      sync.RWMutex
	byID    map[int64]model.Student
	byEmail map[string]int64
}

// NewDirectory creates an empty Directory.
func NewDirectory() *Directory {
	return &Directory{
		byID:    make(map[int64]model.Student),
		byEmail: make(map[string]int64),
	}
}

// Put records students, replacing earlier entries with the same id.
func (d *Directory) Put(students ...model.Student) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, s := range students {
		if old, ok := d.byID[s.ID]; ok {
			delete(d.byEmail, emailKey(old.Email))
		}
		d.byID[s.ID] = s
		if s.Email != "" {
			d.byEmail[emailKey(s.Email)] = s.ID
		}
	}
}

// Email returns the email for a student id.
func (d *Directory) Email(id int64) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.byID[id]
	if !ok || s.Email == "" {
		return "", false
	}
	return s.Email, true
}

// ID returns the student id for an email, ignoring case.
func (d *Directory) ID(email string) (int64, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.byEmail[emailKey(email)]
	return id, ok
}

// Student returns the full record for an id.
func (d *Directory) Student(id int64) (model.Student, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.byID[id]
	return s, ok
}

// Len reports how many students are known.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.byID)
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
