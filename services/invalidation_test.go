package services

import (
	"testing"
	"time"

	"github.com/apps390/project-tracker-home-task/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheKeysShareDeletablePrefixes(t *testing.T) {
	key := ProjectListKey(7, "/api/projects/?page=2")
	assert.Equal(t, "project_list:7:/api/projects/?page=2", key)
	assert.Contains(t, key, projectListPrefix(7))

	taskKey := TaskListKey("alpha-x1", 7, "/api/projects/alpha-x1/tasks?page=1")
	assert.Contains(t, taskKey, taskListPrefix("alpha-x1"))
	// Another user's page for the same project still matches the prefix
	assert.Contains(t, TaskListKey("alpha-x1", 8, "/x"), taskListPrefix("alpha-x1"))
}

func TestInvalidatorClearsProjectScope(t *testing.T) {
	db := newTestDB(t)
	store := cache.NewMemoryStore()
	defer store.Close()

	manager := createManager(t, db, "boss@example.com")
	memberUser, contributor := createMember(t, db, "member@example.com")
	bystander := createManager(t, db, "bystander@example.com")
	project := createProject(t, db, manager, "alpha", day(0), day(30))
	addMember(t, db, project, contributor)

	seed := func(key string) {
		require.NoError(t, store.Set(key, []byte("cached"), time.Minute))
	}
	seed(ProjectListKey(manager.ID, "/api/projects/"))
	seed(ProjectListKey(memberUser.ID, "/api/projects/?page=2"))
	seed(ProjectListKey(bystander.ID, "/api/projects/"))
	seed(TaskListKey(project.Slug, manager.ID, "/api/projects/"+project.Slug+"/tasks"))

	inv := NewInvalidator(db, store, 16)
	inv.Start(1)
	inv.Publish(InvalidationEvent{Scope: ScopeProject, ProjectID: project.ID})
	inv.Stop()

	_, err := store.Get(ProjectListKey(manager.ID, "/api/projects/"))
	assert.ErrorIs(t, err, cache.ErrMiss)
	_, err = store.Get(ProjectListKey(memberUser.ID, "/api/projects/?page=2"))
	assert.ErrorIs(t, err, cache.ErrMiss)
	_, err = store.Get(TaskListKey(project.Slug, manager.ID, "/api/projects/"+project.Slug+"/tasks"))
	assert.ErrorIs(t, err, cache.ErrMiss)

	// Unrelated users keep their pages
	_, err = store.Get(ProjectListKey(bystander.ID, "/api/projects/"))
	assert.NoError(t, err)
}

func TestInvalidatorClearsContributorScope(t *testing.T) {
	db := newTestDB(t)
	store := cache.NewMemoryStore()
	defer store.Close()

	manager := createManager(t, db, "boss@example.com")
	_, contributor := createMember(t, db, "member@example.com")
	first := createProject(t, db, manager, "alpha", day(0), day(30))
	second := createProject(t, db, manager, "beta", day(0), day(30))
	addMember(t, db, first, contributor)
	addMember(t, db, second, contributor)

	require.NoError(t, store.Set(ProjectListKey(manager.ID, "/api/projects/"), []byte("x"), time.Minute))
	require.NoError(t, store.Set(TaskListKey(first.Slug, manager.ID, "/a"), []byte("x"), time.Minute))
	require.NoError(t, store.Set(TaskListKey(second.Slug, manager.ID, "/b"), []byte("x"), time.Minute))

	inv := NewInvalidator(db, store, 16)
	inv.Start(1)
	inv.Publish(InvalidationEvent{Scope: ScopeContributor, ContributorID: contributor.ID})
	inv.Stop()

	for _, key := range []string{
		ProjectListKey(manager.ID, "/api/projects/"),
		TaskListKey(first.Slug, manager.ID, "/a"),
		TaskListKey(second.Slug, manager.ID, "/b"),
	} {
		_, err := store.Get(key)
		assert.ErrorIs(t, err, cache.ErrMiss, key)
	}
}

func TestPublishNeverBlocksWhenQueueFull(t *testing.T) {
	db := newTestDB(t)
	store := cache.NewMemoryStore()
	defer store.Close()

	// No workers running, queue of one: the second publish must drop, not hang
	inv := NewInvalidator(db, store, 1)
	done := make(chan struct{})
	go func() {
		inv.Publish(InvalidationEvent{Scope: ScopeProject, ProjectID: 1})
		inv.Publish(InvalidationEvent{Scope: ScopeProject, ProjectID: 2})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full queue")
	}
}
