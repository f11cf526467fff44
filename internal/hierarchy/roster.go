package hierarchy

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/stemsi/courseware/internal/client"
)

// RosterResult summarizes a bulk enrollment. Already enrolled students land
// in Skipped and never count as failures.
type RosterResult struct {
	Added   int
	Skipped int
	Failed  []error
}

// AddStudents enrolls students into the selected batch by id. The roster is
// reloaded once at the end. The returned error joins Failed.
func (n *Navigator) AddStudents(ctx context.Context, studentIDs []int64) (RosterResult, error) {
	var res RosterResult
	if len(studentIDs) == 0 {
		return res, n.invalid(errors.New("select at least one student"))
	}

	n.mu.Lock()
	if n.batch == nil {
		n.mu.Unlock()
		return res, n.invalid(ErrNoBatch)
	}
	courseID, batchID := n.batch.CourseID, n.batch.ID
	enrolled := make(map[int64]bool, len(n.roster))
	for _, s := range n.roster {
		enrolled[s.ID] = true
	}
	n.mu.Unlock()

	for _, id := range studentIDs {
		if enrolled[id] {
			res.Skipped++
			continue
		}
		email, ok := n.dir.Email(id)
		if !ok {
			res.Failed = append(res.Failed, fmt.Errorf("%w: %d", ErrUnknownStudent, id))
			continue
		}

		_, err := n.api.AddMember(ctx, courseID, batchID, email)
		switch {
		case err == nil:
			res.Added++
			enrolled[id] = true
		case client.IsAlreadyMember(err):
			res.Skipped++
			enrolled[id] = true
		default:
			res.Failed = append(res.Failed, fmt.Errorf("%s: %w", email, err))
		}
	}

	_ = n.refreshRoster(ctx, courseID, batchID)

	if res.Added > 0 {
		n.notify(LevelSuccess, "Students added", strconv.Itoa(res.Added)+" added")
	}
	for _, err := range res.Failed {
		n.fail("Could not add student", err)
	}
	return res, errors.Join(res.Failed...)
}

// RemoveStudent unenrolls a student from the selected batch. The server
// endpoint is keyed by email; the id is sent only when no email is known.
func (n *Navigator) RemoveStudent(ctx context.Context, studentID int64) error {
	n.mu.Lock()
	if n.batch == nil {
		n.mu.Unlock()
		return n.invalid(ErrNoBatch)
	}
	courseID, batchID := n.batch.CourseID, n.batch.ID
	n.mu.Unlock()

	member, ok := n.dir.Email(studentID)
	if !ok {
		member = strconv.FormatInt(studentID, 10)
	}

	if err := n.api.RemoveMember(ctx, courseID, batchID, member); err != nil {
		n.fail("Could not remove student", err)
		return err
	}

	_ = n.refreshRoster(ctx, courseID, batchID)
	n.notify(LevelSuccess, "Student removed", member)
	return nil
}
