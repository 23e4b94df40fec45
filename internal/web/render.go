// Package web renders the HTML surfaces of the newsletter system: the email
// body, the subscription management page, confirmation pages, and the task
// dashboard. Templates are embedded so the binary is self-contained.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/engsync/briefing/internal/domain"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// noActivitySummary is shown for tasks with no enriched comment summary.
const noActivitySummary = "No changes reported over the last 7 days."

// EmailData drives the newsletter email template.
type EmailData struct {
	Date            string
	Year            int
	TotalTasks      int
	TotalCategories int
	Categories      []domain.CategoryActivity
	ManageURL       string
	DashboardURL    string
}

// ManageCategory is one selectable category on the management page.
type ManageCategory struct {
	ID         int
	Name       string
	Subscribed bool
}

// ManagePageData drives the subscription management page.
type ManagePageData struct {
	Token      string
	Email      string
	Categories []ManageCategory
}

// ConfirmationData drives the subscribe/unsubscribe confirmation pages.
type ConfirmationData struct {
	Title     string
	Heading   string
	Message   string
	ManageURL string
}

// AdminRecipient is one row of the admin recipients table.
type AdminRecipient struct {
	ID            string
	Email         string
	Subscriptions string
}

// AdminDelivery is one row of the admin deliveries table.
type AdminDelivery struct {
	When          string
	Subject       string
	CategoryCount int
	TaskCount     int
	Status        string
	Error         string
}

// AdminData drives the admin overview page.
type AdminData struct {
	Recipients []AdminRecipient
	Deliveries []AdminDelivery
}

// DashboardData drives the admin task dashboard.
type DashboardData struct {
	GeneratedAt     string
	TotalTasks      int
	TotalCategories int
	HighPriority    int
	Enriched        bool
	Categories      []domain.CategoryActivity
}

// Renderer holds the parsed template set.
type Renderer struct {
	templates *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("web").Funcs(template.FuncMap{
		"priorityColor": priorityColor,
		"priorityClass": priorityClass,
		"summaryOr":     summaryOr,
	}).ParseFS(templatesFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse web templates: %w", err)
	}
	return &Renderer{templates: tmpl}, nil
}

// Email renders the newsletter email body for the given snapshot view.
func (r *Renderer) Email(categories []domain.CategoryActivity, manageURL, dashboardURL string, now time.Time) (string, error) {
	totalTasks := 0
	totalCategories := 0
	for _, c := range categories {
		totalTasks += len(c.Tasks)
		if len(c.Tasks) > 0 {
			totalCategories++
		}
	}

	return r.render("email", EmailData{
		Date:            now.Format("January 2, 2006"),
		Year:            now.Year(),
		TotalTasks:      totalTasks,
		TotalCategories: totalCategories,
		Categories:      categories,
		ManageURL:       manageURL,
		DashboardURL:    dashboardURL,
	})
}

// ManagePage renders the subscription management form.
func (r *Renderer) ManagePage(data ManagePageData) (string, error) {
	return r.render("manage", data)
}

// Confirmation renders a confirmation page.
func (r *Renderer) Confirmation(data ConfirmationData) (string, error) {
	return r.render("confirmation", data)
}

// Dashboard renders the admin task dashboard over the snapshot.
func (r *Renderer) Dashboard(categories []domain.CategoryActivity, enriched bool, now time.Time) (string, error) {
	totalTasks := 0
	highPriority := 0
	for _, c := range categories {
		totalTasks += len(c.Tasks)
		for _, t := range c.Tasks {
			if t.Priority == domain.PriorityHigh {
				highPriority++
			}
		}
	}

	return r.render("dashboard", DashboardData{
		GeneratedAt:     now.Format("2006-01-02 15:04:05"),
		TotalTasks:      totalTasks,
		TotalCategories: len(categories),
		HighPriority:    highPriority,
		Enriched:        enriched,
		Categories:      categories,
	})
}

// Admin renders the admin recipients and deliveries overview.
func (r *Renderer) Admin(data AdminData) (string, error) {
	return r.render("admin", data)
}

func (r *Renderer) render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s template: %w", name, err)
	}
	return buf.String(), nil
}

func priorityColor(priority string) string {
	switch {
	case strings.Contains(priority, "High"):
		return "#de350b"
	case strings.Contains(priority, "Medium"):
		return "#ffd100"
	default:
		return "#00875a"
	}
}

func priorityClass(priority string) string {
	switch priority {
	case domain.PriorityHigh:
		return "priority-high"
	case domain.PriorityMedium:
		return "priority-medium"
	case domain.PriorityLow:
		return "priority-low"
	default:
		return ""
	}
}

func summaryOr(summary string) string {
	if summary == "" {
		return noActivitySummary
	}
	return summary
}
