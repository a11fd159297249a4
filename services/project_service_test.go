package services

import (
	"testing"

	"github.com/apps390/project-tracker-home-task/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProjectValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewProjectService(db, nil)
	manager := createManager(t, db, "boss@example.com")

	valid := ProjectInput{
		Name:      strPtr("Warehouse Move"),
		StartDate: strPtr(dayStr(0)),
		EndDate:   strPtr(dayStr(30)),
	}

	tests := []struct {
		name    string
		mutate  func(in ProjectInput) ProjectInput
		wantMsg string
	}{
		{
			"blank name",
			func(in ProjectInput) ProjectInput { in.Name = strPtr("   "); return in },
			"Project name cannot be empty or only spaces.",
		},
		{
			"missing dates",
			func(in ProjectInput) ProjectInput { in.StartDate = nil; return in },
			"Both start date and end date are required.",
		},
		{
			"bad date format",
			func(in ProjectInput) ProjectInput { in.StartDate = strPtr("01-02-2026"); return in },
			"Start date must be in YYYY-MM-DD format.",
		},
		{
			"start in the past",
			func(in ProjectInput) ProjectInput { in.StartDate = strPtr(dayStr(-1)); return in },
			"Start date cannot be in the past.",
		},
		{
			"end before start",
			func(in ProjectInput) ProjectInput {
				in.StartDate = strPtr(dayStr(10))
				in.EndDate = strPtr(dayStr(5))
				return in
			},
			"End date cannot be earlier than start date.",
		},
		{
			"whitespace location",
			func(in ProjectInput) ProjectInput { in.Location = strPtr("   "); return in },
			"Location cannot be empty or only spaces.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateProject(manager, tt.mutate(valid))
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.wantMsg, vErr.Message)
		})
	}
}

func TestCreateProjectDuplicateName(t *testing.T) {
	db := newTestDB(t)
	svc := NewProjectService(db, nil)
	manager := createManager(t, db, "boss@example.com")

	in := ProjectInput{
		Name:      strPtr("Warehouse Move"),
		StartDate: strPtr(dayStr(0)),
		EndDate:   strPtr(dayStr(30)),
	}
	first, err := svc.CreateProject(manager, in)
	require.NoError(t, err)
	assert.NotEmpty(t, first.Slug)
	assert.Equal(t, models.ProjectActive, first.Status)

	// Same name, different case
	in.Name = strPtr("warehouse MOVE")
	_, err = svc.CreateProject(manager, in)
	assert.ErrorIs(t, err, ErrConflict)

	// Deleting the original frees the name
	require.NoError(t, svc.DeleteProject(first.Slug, managerActor(manager)))
	_, err = svc.CreateProject(manager, in)
	assert.NoError(t, err)
}

func TestUpdateProjectPartial(t *testing.T) {
	db := newTestDB(t)
	svc := NewProjectService(db, nil)
	manager := createManager(t, db, "boss@example.com")
	project := createProject(t, db, manager, "alpha", day(0), day(30))

	updated, err := svc.UpdateProject(project.Slug, managerActor(manager), ProjectInput{
		Description: strPtr("rework the racking"),
		Status:      strPtr("on_hold"),
	})
	require.NoError(t, err)
	assert.Equal(t, "alpha", updated.Name)
	assert.Equal(t, "rework the racking", updated.Description)
	assert.Equal(t, models.ProjectOnHold, updated.Status)

	_, err = svc.UpdateProject(project.Slug, managerActor(manager), ProjectInput{
		Status: strPtr("bogus"),
	})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "status", vErr.Field)
}

func TestUpdateProjectAccess(t *testing.T) {
	db := newTestDB(t)
	svc := NewProjectService(db, nil)
	owner := createManager(t, db, "owner@example.com")
	rival := createManager(t, db, "rival@example.com")
	memberUser, contributor := createMember(t, db, "member@example.com")
	project := createProject(t, db, owner, "alpha", day(0), day(30))
	addMember(t, db, project, contributor)

	in := ProjectInput{Description: strPtr("nope")}

	_, err := svc.UpdateProject(project.Slug, managerActor(rival), in)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.UpdateProject(project.Slug, memberActor(memberUser, contributor), in)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.UpdateProject("no-such-slug", managerActor(owner), in)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteProjectTwice(t *testing.T) {
	db := newTestDB(t)
	svc := NewProjectService(db, nil)
	manager := createManager(t, db, "boss@example.com")
	project := createProject(t, db, manager, "alpha", day(0), day(30))

	require.NoError(t, svc.DeleteProject(project.Slug, managerActor(manager)))

	err := svc.DeleteProject(project.Slug, managerActor(manager))
	assert.ErrorIs(t, err, ErrAlreadyDeleted)

	// Updates on a deleted project fail the same way
	_, err = svc.UpdateProject(project.Slug, managerActor(manager), ProjectInput{
		Description: strPtr("too late"),
	})
	assert.ErrorIs(t, err, ErrAlreadyDeleted)
}

func TestListProjectsScoping(t *testing.T) {
	db := newTestDB(t)
	svc := NewProjectService(db, nil)
	owner := createManager(t, db, "owner@example.com")
	other := createManager(t, db, "other@example.com")
	memberUser, contributor := createMember(t, db, "member@example.com")

	mine := createProject(t, db, owner, "mine", day(0), day(30))
	addMember(t, db, mine, contributor)
	createProject(t, db, other, "theirs", day(0), day(30))
	deleted := createProject(t, db, owner, "gone", day(0), day(30))
	require.NoError(t, svc.DeleteProject(deleted.Slug, managerActor(owner)))

	projects, total, err := svc.ListProjects(owner.ID, "", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "mine", projects[0].Name)

	// Membership grants list visibility
	projects, total, err = svc.ListProjects(memberUser.ID, "", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "mine", projects[0].Name)

	// Status filter
	_, total, err = svc.ListProjects(owner.ID, "completed", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
}

func TestProjectMembers(t *testing.T) {
	db := newTestDB(t)
	svc := NewProjectService(db, nil)
	owner := createManager(t, db, "owner@example.com")
	memberUser, contributor := createMember(t, db, "member@example.com")
	_, outsider := createMember(t, db, "outsider@example.com")
	project := createProject(t, db, owner, "alpha", day(0), day(30))
	addMember(t, db, project, contributor)

	members, err := svc.Members(project.Slug, managerActor(owner))
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, contributor.ID, members[0].ID)

	members, err = svc.Members(project.Slug, memberActor(memberUser, contributor))
	require.NoError(t, err)
	assert.Len(t, members, 1)

	outsiderUser := models.User{ID: outsider.UserID, Role: models.RoleMember}
	_, err = svc.Members(project.Slug, memberActor(&outsiderUser, outsider))
	assert.ErrorIs(t, err, ErrForbidden)
}
