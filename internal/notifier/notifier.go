package notifier

import (
	"errors" // Error inspection
	"fmt"    // Mail formatting
	"time"   // Throttle window arithmetic

	"expense_tracker/internal/domain" // Importing domain models
	"expense_tracker/internal/mailer" // Mail delivery

	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// throttleWindow is how long a sent over-budget mail suppresses the next one
const throttleWindow = 7 * 24 * time.Hour

// Notifier recomputes a project's spend after expense mutations and mails
// all members once the budget is exceeded. It runs detached from the
// request; every failure is logged and swallowed, never surfaced to a client.
type Notifier struct {
	db     *gorm.DB      // Database handle
	mailer mailer.Mailer // Mail delivery
}

// New creates a Notifier
func New(db *gorm.DB, m mailer.Mailer) *Notifier {
	return &Notifier{db: db, mailer: m}
}

// ExpenseCreated runs the over-budget check in the background
func (n *Notifier) ExpenseCreated(projectID uint) {
	n.spawn(projectID, n.CheckAfterCreate)
}

// ExpenseDeleted runs the back-under-budget check in the background
func (n *Notifier) ExpenseDeleted(projectID uint) {
	n.spawn(projectID, n.CheckAfterDelete)
}

// spawn runs a check detached from the request; the caller never waits on it
func (n *Notifier) spawn(projectID uint, check func(uint) error) {
	go func() {
		// The goroutine outlives the request; a panic here must not take
		// the process down
		defer func() {
			if r := recover(); r != nil {
				logrus.WithFields(logrus.Fields{
					"project_id": projectID, // Project being checked
					"panic":      r,         // Recovered value
				}).Error("Budget check panicked")
			}
		}()
		if err := check(projectID); err != nil {
			logrus.WithFields(logrus.Fields{
				"project_id": projectID,   // Project being checked
				"error":      err.Error(), // Error message
			}).Error("Budget check failed")
		}
	}()
}

// CheckAfterCreate recomputes the project total and mails all members once
// when spend crosses the budget, throttled to one mail per week
func (n *Notifier) CheckAfterCreate(projectID uint) error {
	total, err := n.projectTotal(projectID) // Recompute total spend
	if err != nil {
		return err
	}
	project, ok, err := n.fetchProject(projectID) // Project may be gone by now
	if err != nil || !ok {
		return err
	}
	// Legacy rows without a budget never notify
	if project.Budget == nil {
		return nil
	}
	// Still at or under budget, nothing to do
	if total <= *project.Budget {
		return nil
	}
	// Claim timestamp, truncated to milliseconds so the stored DATETIME(3)
	// value stays byte-equal to the one releaseClaim matches on
	now := time.Now().Truncate(time.Millisecond)
	cutoff := now.Add(-throttleWindow) // Mails older than this no longer throttle
	// Claim the notification with a single conditional update so concurrent
	// checks on the same project cannot double-send
	res := n.db.Model(&domain.Project{}).
		Where("id = ? AND (notified_over_budget = ? OR last_over_budget_notified_at IS NULL OR last_over_budget_notified_at < ?)",
			projectID, false, cutoff).
		Updates(map[string]any{
			"notified_over_budget":         true, // Mark as notified
			"last_over_budget_notified_at": now,  // Start of the throttle window
		})
	if res.Error != nil {
		return res.Error
	}
	// Zero rows means a mail already went out within the window
	if res.RowsAffected == 0 {
		return nil
	}
	emails, err := n.memberEmails(projectID) // Resolve recipient addresses
	if err != nil {
		n.releaseClaim(projectID, now) // Let a later trigger re-attempt
		return err
	}
	// No member has a resolvable address; the claim stands, there is
	// nobody to mail
	if len(emails) == 0 {
		return nil
	}
	subject := fmt.Sprintf("Project %q is over budget", project.Name)
	body := fmt.Sprintf(
		"<p>Project <strong>%s</strong> has spent %.2f of its %.2f budget.</p><p>Review its expenses to bring spend back under control.</p>",
		project.Name, total, *project.Budget)
	// One mail to every member; on failure the claim is released so the
	// next expense mutation re-attempts
	if err := n.mailer.Send(emails, subject, body); err != nil {
		n.releaseClaim(projectID, now)
		return err
	}
	// Log the sent notification
	logrus.WithFields(logrus.Fields{
		"project_id": projectID,       // Project over budget
		"total":      total,           // Current spend
		"budget":     *project.Budget, // Configured budget
		"recipients": len(emails),     // Number of addresses mailed
	}).Info("Over-budget notification sent")
	return nil
}

// CheckAfterDelete recomputes the project total and clears the notified
// flag once spend drops back at or under budget; no mail on the way down
func (n *Notifier) CheckAfterDelete(projectID uint) error {
	total, err := n.projectTotal(projectID) // Recompute total spend
	if err != nil {
		return err
	}
	project, ok, err := n.fetchProject(projectID) // Project may be gone by now
	if err != nil || !ok {
		return err
	}
	// Legacy rows without a budget never notify
	if project.Budget == nil {
		return nil
	}
	// Still over budget, keep the flag
	if total > *project.Budget {
		return nil
	}
	// Clear the flag with a conditional update; a no-op when it was never set
	return n.db.Model(&domain.Project{}).
		Where("id = ? AND notified_over_budget = ?", projectID, true).
		Updates(map[string]any{
			"notified_over_budget":         false, // Back under budget
			"last_over_budget_notified_at": nil,   // Reset the throttle window
		}).Error
}

// projectTotal sums all expense amounts for a project, 0 when none exist
func (n *Notifier) projectTotal(projectID uint) (float64, error) {
	var total float64
	err := n.db.Model(&domain.Expense{}).
		Where("project_id = ?", projectID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

// fetchProject loads a project; a missing row (deleted concurrently) is
// reported as ok=false, not as an error
func (n *Notifier) fetchProject(projectID uint) (*domain.Project, bool, error) {
	var project domain.Project
	if err := n.db.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Guard against the project vanishing between mutation and check
			logrus.WithField("project_id", projectID).Warn("Project gone before budget check")
			return nil, false, nil
		}
		return nil, false, err
	}
	return &project, true, nil
}

// memberEmails resolves the addresses of all project members, skipping
// members without one
func (n *Notifier) memberEmails(projectID uint) ([]string, error) {
	var emails []string
	err := n.db.Model(&domain.User{}).
		Joins("JOIN project_members ON project_members.user_id = users.id").
		Where("project_members.project_id = ? AND users.email <> ''", projectID).
		Pluck("users.email", &emails).Error
	return emails, err
}

// releaseClaim undoes a claimed notification after a send failure so a
// later trigger can re-attempt; only our own claim (matching timestamp)
// is released
func (n *Notifier) releaseClaim(projectID uint, claimedAt time.Time) {
	err := n.db.Model(&domain.Project{}).
		Where("id = ? AND last_over_budget_notified_at = ?", projectID, claimedAt).
		Updates(map[string]any{
			"notified_over_budget":         false, // Re-arm the notification
			"last_over_budget_notified_at": nil,   // Reset the throttle window
		}).Error
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"project_id": projectID,   // Project whose claim failed to release
			"error":      err.Error(), // Error message
		}).Error("Failed to release notification claim")
	}
}
