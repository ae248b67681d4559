package tui

import (
	"github.com/charmbracelet/huh"

	"github.com/atish-webtools/web-tools/internal/estimate"
)

// Values holds what the user entered in the estimate form.
type Values struct {
	Input  string
	Output string
	Model  string
}

// Request converts the form values into an estimate request.
func (v *Values) Request() estimate.Request {
	return estimate.Request{Input: v.Input, Output: v.Output, Model: v.Model}
}

// EstimateForm wraps a Huh form collecting prompt, reply and model.
type EstimateForm struct {
	form   *huh.Form
	values *Values
}

// NewEstimateForm creates the form. The model select lists models in order
// and starts on defaultModel when it is one of them.
func NewEstimateForm(models []string, defaultModel string) *EstimateForm {
	v := &Values{}
	for _, id := range models {
		if id == defaultModel {
			v.Model = id
		}
	}
	if v.Model == "" && len(models) > 0 {
		v.Model = models[0]
	}

	group := huh.NewGroup(
		huh.NewText().
			Title("Input Text (Prompt)").
			Placeholder("Paste the prompt you will send").
			Value(&v.Input),
		huh.NewText().
			Title("Expected Output Text (Response)").
			Placeholder("Paste a typical reply").
			Value(&v.Output),
		huh.NewSelect[string]().
			Title("Model").
			Options(huh.NewOptions(models...)...).
			Value(&v.Model),
	).Title("Estimate")

	return &EstimateForm{
		form:   huh.NewForm(group).WithShowHelp(true),
		values: v,
	}
}

// Form returns the underlying huh.Form for Bubble Tea embedding.
func (f *EstimateForm) Form() *huh.Form { return f.form }

// SetForm replaces the underlying huh.Form after an Update.
func (f *EstimateForm) SetForm(form *huh.Form) { f.form = form }

// Values returns the bound values.
func (f *EstimateForm) Values() *Values { return f.values }

// IsCompleted returns true once the form has been submitted.
func (f *EstimateForm) IsCompleted() bool { return f.form.State == huh.StateCompleted }

// IsAborted returns true if the user cancelled the form.
func (f *EstimateForm) IsAborted() bool { return f.form.State == huh.StateAborted }
