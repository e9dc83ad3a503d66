package inmemdb

import (
	"sync"

	"github.com/eakinwale/acadia/core/approval"
	"github.com/eakinwale/acadia/core/assignment"
	"github.com/eakinwale/acadia/core/course"
	"github.com/eakinwale/acadia/core/result"
	"github.com/eakinwale/acadia/core/user"
)

type (
	// DB is the in-memory store backing every repository in this package.
	// Intended for tests and local development.
	DB struct {
		user       *userTable
		course     *courseTable
		result     *resultTable
		approval   *approvalTable
		assignment *assignmentTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	courseTable struct {
		sync.RWMutex
		table map[string]*course.Course
	}

	resultTable struct {
		sync.RWMutex
		table map[string]*result.Result
	}

	approvalTable struct {
		sync.RWMutex
		table map[string]*approval.ResultApproval
	}

	assignmentTable struct {
		sync.RWMutex
		table map[string]*assignment.CourseAssignment
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:       &userTable{table: make(map[string]*user.User)},
		course:     &courseTable{table: make(map[string]*course.Course)},
		result:     &resultTable{table: make(map[string]*result.Result)},
		approval:   &approvalTable{table: make(map[string]*approval.ResultApproval)},
		assignment: &assignmentTable{table: make(map[string]*assignment.CourseAssignment)},
	}
	return db, nil
}
