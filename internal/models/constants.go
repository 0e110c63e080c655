// Package models contains data types and constants for the TechSolve client.
package models

import (
	"fmt"
	"strings"

	apierrors "github.com/diogo/techsolve/internal/errors"
)

// DefaultModel is the Gemini model used when none is configured
const DefaultModel = "gemini-3-pro-preview"

// DefaultThinkingBudget is the token budget for the model's reasoning
const DefaultThinkingBudget = 2000

// Fixed texts shown to the user
const (
	FallbackAnswerText  = "I apologize, but I couldn't generate a solution. Please try rephrasing."
	ConnectionErrorText = "Error connecting to the diagnostic core. Please ensure your API key is valid and try again."
	ImageOnlyLabel      = "Image Scan"
)

// Category is the problem domain used to steer the system instruction
type Category string

const (
	CategoryHardware   Category = "hardware"
	CategorySoftware   Category = "software"
	CategoryAI         Category = "ai"
	CategoryNetworking Category = "networking"
)

// DefaultCategory is selected when the application starts
const DefaultCategory = CategoryHardware

// CategoryInfo holds display metadata for a category
type CategoryInfo struct {
	ID          Category
	Label       string
	Icon        string
	Description string
}

var categories = []CategoryInfo{
	{CategoryHardware, "Hardware", "🔌", "PC components, peripherals, mobile devices"},
	{CategorySoftware, "Software", "💿", "OS issues, driver errors, crashes"},
	{CategoryAI, "AI & ML", "🧠", "Model training, API integration, GPU setup"},
	{CategoryNetworking, "Networking", "🌐", "WiFi, DNS, routers, latency issues"},
}

// AllCategories returns the categories in display order
func AllCategories() []CategoryInfo {
	out := make([]CategoryInfo, len(categories))
	copy(out, categories)
	return out
}

// ParseCategory resolves a category by id or label, case-insensitively
func ParseCategory(name string) (Category, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, c := range categories {
		if name == string(c.ID) || name == strings.ToLower(c.Label) {
			return c.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %q", apierrors.ErrUnknownCategory, name)
}

// Info returns the display metadata of the category
func (c Category) Info() CategoryInfo {
	for _, info := range categories {
		if info.ID == c {
			return info
		}
	}
	return CategoryInfo{ID: c, Label: string(c)}
}

// Valid reports whether c is one of the known category ids
func (c Category) Valid() bool {
	for _, info := range categories {
		if info.ID == c {
			return true
		}
	}
	return false
}

// Next returns the following category, wrapping around
func (c Category) Next() Category {
	for i, info := range categories {
		if info.ID == c {
			return categories[(i+1)%len(categories)].ID
		}
	}
	return categories[0].ID
}

// ExamplePrompts are offered on the welcome screen
var ExamplePrompts = []string{
	"Blue screen of death on startup",
	"CUDA error during training",
	"Packet loss on specific VLAN",
	"Broken mechanical switch",
}
