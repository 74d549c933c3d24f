// Package authz decides who may read or change a group and its expenses.
package authz

import (
	"context"
	"errors"
)

var (
	ErrForbidden       = errors.New("not allowed")
	ErrGroupNotFound   = errors.New("group not found")
	ErrExpenseNotFound = errors.New("expense not found")
)

// Store is the lookup the checker needs
type Store interface {
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
	GroupOwner(ctx context.Context, groupID string) (ownerID string, found bool, err error)
	ExpenseGroup(ctx context.Context, expenseID string) (groupID string, found bool, err error)
}

// Checker is shared by every feature service. The owner of a group is its creator.
type Checker struct {
	repo Store
}

// NewChecker creates a checker over repo
func NewChecker(repo Store) *Checker {
	return &Checker{repo: repo}
}

// IsMember reports whether userID belongs to groupID
func (c *Checker) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	return c.repo.IsMember(ctx, groupID, userID)
}

// IsOwner reports whether userID created groupID
func (c *Checker) IsOwner(ctx context.Context, groupID, userID string) (bool, error) {
	owner, found, err := c.repo.GroupOwner(ctx, groupID)
	if err != nil || !found {
		return false, err
	}
	return owner == userID, nil
}

// EnsureMember fails with ErrGroupNotFound or ErrForbidden unless userID is a member
func (c *Checker) EnsureMember(ctx context.Context, groupID, userID string) error {
	if _, found, err := c.repo.GroupOwner(ctx, groupID); err != nil {
		return err
	} else if !found {
		return ErrGroupNotFound
	}

	ok, err := c.repo.IsMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

// EnsureOwner fails with ErrGroupNotFound or ErrForbidden unless userID owns the group
func (c *Checker) EnsureOwner(ctx context.Context, groupID, userID string) error {
	owner, found, err := c.repo.GroupOwner(ctx, groupID)
	if err != nil {
		return err
	}
	if !found {
		return ErrGroupNotFound
	}
	if owner != userID {
		return ErrForbidden
	}
	return nil
}

// EnsureExpenseMember checks that userID belongs to the expense's group and returns that group
func (c *Checker) EnsureExpenseMember(ctx context.Context, expenseID, userID string) (string, error) {
	groupID, found, err := c.repo.ExpenseGroup(ctx, expenseID)
	if err != nil {
		return "", err
	}
	if !found {
		return "", ErrExpenseNotFound
	}
	if err := c.EnsureMember(ctx, groupID, userID); err != nil {
		return "", err
	}
	return groupID, nil
}

// ExpenseInGroup reports whether the expense exists and belongs to groupID
func (c *Checker) ExpenseInGroup(ctx context.Context, expenseID, groupID string) (bool, error) {
	actual, found, err := c.repo.ExpenseGroup(ctx, expenseID)
	if err != nil || !found {
		return false, err
	}
	return actual == groupID, nil
}
