// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

package catalogui

import "github.com/charmbracelet/lipgloss"

// Theme is the color palette of the browser, in ANSI 256-color codes.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color

	// Registered marks courses in the enrollment set; Pending marks
	// courses with a request in flight.
	Registered lipgloss.Color
	Pending    lipgloss.Color

	Success lipgloss.Color
	Failure lipgloss.Color
}

// DefaultTheme suits a dark terminal.
var DefaultTheme = Theme{
	NormalText:         lipgloss.Color("252"),
	FaintText:          lipgloss.Color("243"),
	SelectedBackground: lipgloss.Color("237"),
	SelectedForeground: lipgloss.Color("255"),
	HeaderForeground:   lipgloss.Color("75"),
	BorderColor:        lipgloss.Color("240"),
	HelpText:           lipgloss.Color("245"),
	Registered:         lipgloss.Color("114"),
	Pending:            lipgloss.Color("221"),
	Success:            lipgloss.Color("114"),
	Failure:            lipgloss.Color("203"),
}
