// services/invalidation.go - Cache Invalidation Coordinator
//
// Entity mutations publish a typed scope event onto a bounded queue; a small
// worker pool resolves the affected users and drops the matching cached list
// views. Publishing never blocks the request path and never fails the write
// that triggered it: a full queue drops the event and logs, and the cache TTL
// bounds how long a dropped invalidation can serve stale data.
package services

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/apps390/project-tracker-home-task/cache"
	"github.com/apps390/project-tracker-home-task/models"

	"gorm.io/gorm"
)

// ListCacheTTL bounds staleness when an invalidation is delayed or dropped.
const ListCacheTTL = 5 * time.Minute

// ProjectListKey caches one page of a user's project list.
func ProjectListKey(userID uint, fullPath string) string {
	return fmt.Sprintf("project_list:%d:%s", userID, fullPath)
}

// TaskListKey caches one page of a project's task list for one user. The slug
// leads so a whole project's task caches share a prefix.
func TaskListKey(projectSlug string, userID uint, fullPath string) string {
	return fmt.Sprintf("task_list:%s:%d:%s", projectSlug, userID, fullPath)
}

func projectListPrefix(userID uint) string {
	return fmt.Sprintf("project_list:%d:", userID)
}

func taskListPrefix(projectSlug string) string {
	return fmt.Sprintf("task_list:%s:", projectSlug)
}

// InvalidationScope names what changed.
type InvalidationScope string

const (
	ScopeProject     InvalidationScope = "project"
	ScopeTask        InvalidationScope = "task"
	ScopeContributor InvalidationScope = "contributor"
	ScopeMembership  InvalidationScope = "membership"
)

// InvalidationEvent carries just the ids; the worker resolves the current
// membership graph at consume time so late events still hit the right users.
type InvalidationEvent struct {
	Scope         InvalidationScope
	ProjectID     uint
	ContributorID uint
}

// Invalidator consumes invalidation events and clears cached list views.
type Invalidator struct {
	db    *gorm.DB
	store cache.Store

	events chan InvalidationEvent
	wg     sync.WaitGroup
	once   sync.Once
}

func NewInvalidator(db *gorm.DB, store cache.Store, queueSize int) *Invalidator {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Invalidator{
		db:     db,
		store:  store,
		events: make(chan InvalidationEvent, queueSize),
	}
}

// Start launches the worker pool.
func (inv *Invalidator) Start(workers int) {
	if workers <= 0 {
		workers = 2
	}
	for i := 0; i < workers; i++ {
		inv.wg.Add(1)
		go func() {
			defer inv.wg.Done()
			for ev := range inv.events {
				inv.handle(ev)
			}
		}()
	}
}

// Stop closes the queue and waits for in-flight invalidations to finish.
func (inv *Invalidator) Stop() {
	inv.once.Do(func() { close(inv.events) })
	inv.wg.Wait()
}

// Publish enqueues an event without blocking. Dropped events are logged; the
// TTL is the correctness backstop.
func (inv *Invalidator) Publish(ev InvalidationEvent) {
	select {
	case inv.events <- ev:
	default:
		log.Printf("invalidation queue full, dropping %s event (project=%d contributor=%d); TTL will expire the stale entries",
			ev.Scope, ev.ProjectID, ev.ContributorID)
	}
}

func (inv *Invalidator) handle(ev InvalidationEvent) {
	switch ev.Scope {
	case ScopeProject, ScopeTask, ScopeMembership:
		inv.clearProjectScope(ev.ProjectID)
	case ScopeContributor:
		inv.clearContributorScope(ev.ContributorID)
	default:
		log.Printf("invalidation: unknown scope %q", ev.Scope)
	}
}

// clearProjectScope drops the creator's and every member's project list pages
// plus all task list pages under the project.
func (inv *Invalidator) clearProjectScope(projectID uint) {
	var project models.Project
	err := inv.db.Preload("Members").First(&project, projectID).Error
	if err != nil {
		// Row already gone; nothing left to resolve, TTL covers the rest.
		log.Printf("invalidation: project %d not loadable: %v", projectID, err)
		return
	}

	inv.deletePrefix(projectListPrefix(project.CreatedByID))
	inv.deletePrefix(taskListPrefix(project.Slug))

	for _, member := range project.Members {
		inv.deletePrefix(projectListPrefix(member.UserID))
	}
}

// clearContributorScope drops the project list pages of every project the
// contributor belongs to.
func (inv *Invalidator) clearContributorScope(contributorID uint) {
	var contributor models.Contributor
	err := inv.db.Preload("Projects").First(&contributor, contributorID).Error
	if err != nil {
		log.Printf("invalidation: contributor %d not loadable: %v", contributorID, err)
		return
	}

	for _, project := range contributor.Projects {
		inv.clearProjectScope(project.ID)
	}
}

func (inv *Invalidator) deletePrefix(prefix string) {
	if _, err := inv.store.DeletePattern(prefix); err != nil {
		log.Printf("invalidation: delete pattern %q failed: %v", prefix, err)
	}
}
