package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/eakinwale/acadia/core"
	"github.com/eakinwale/acadia/core/course"
	"github.com/eakinwale/acadia/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateCourse(
	t *testing.T,
	repo course.Repository,
	code, title string,
	creditUnit int,
	department string,
) course.Course {
	t.Helper()

	now := time.Now().UTC()
	crs := course.Course{
		ID:         uuid.New().String(),
		Code:       core.CleanString(code, true /* lower */),
		Title:      title,
		CreditUnit: creditUnit,
		Department: department,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	crs, err := repo.CreateCourse(context.Background(), crs)
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return crs
}
