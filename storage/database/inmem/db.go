// Package inmemdb keeps users, LMS content and sync runs in memory. Every operation holds the DB lock, which
// makes multi-step writes atomic.
package inmemdb

import (
	"sync"

	"github.com/YounesFetouaki/edu-path/core/datasync"
	"github.com/YounesFetouaki/edu-path/core/lms"
	"github.com/YounesFetouaki/edu-path/core/user"
)

type teacherClass struct {
	teacherID int
	classID   int
}

type studentAssignment struct {
	assignmentID int
	studentID    int
}

type DB struct {
	mu  sync.RWMutex
	seq map[string]int

	users              map[int]user.User
	classes            map[int]lms.Class
	teacherClasses     map[teacherClass]bool
	students           map[int]lms.Student
	courses            map[int]lms.Course
	modules            map[int]lms.Module
	chapters           map[int]lms.Chapter
	quizzes            map[int]lms.Quiz
	questions          map[int][]lms.Question // by quiz id
	grades             map[int]lms.Grade
	assignments        map[int]lms.Assignment
	studentAssignments map[studentAssignment]string // status
	syncRuns           []datasync.Run
}

func Open() *DB {
	return &DB{
		seq:                make(map[string]int),
		users:              make(map[int]user.User),
		classes:            make(map[int]lms.Class),
		teacherClasses:     make(map[teacherClass]bool),
		students:           make(map[int]lms.Student),
		courses:            make(map[int]lms.Course),
		modules:            make(map[int]lms.Module),
		chapters:           make(map[int]lms.Chapter),
		quizzes:            make(map[int]lms.Quiz),
		questions:          make(map[int][]lms.Question),
		grades:             make(map[int]lms.Grade),
		assignments:        make(map[int]lms.Assignment),
		studentAssignments: make(map[studentAssignment]string),
	}
}

// nextID must be called with the write lock held.
func (db *DB) nextID(table string) int {
	db.seq[table]++
	return db.seq[table]
}

// AddClass creates a class taught by the given teachers, without checking they exist.
func (db *DB) AddClass(name string, teacherIDs ...int) lms.Class {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.insertClass(name, teacherIDs)
}

// insertClass must be called with the write lock held.
func (db *DB) insertClass(name string, teacherIDs []int) lms.Class {
	class := lms.Class{ID: db.nextID("classes"), Name: name}
	db.classes[class.ID] = class
	for _, tid := range teacherIDs {
		db.teacherClasses[teacherClass{teacherID: tid, classID: class.ID}] = true
	}
	return class
}
