package form

import (
	"strings"
	"time"

	"kairos-gateway/internal/metadata"
	"kairos-gateway/internal/render"
)

// now is swapped in tests.
var now = time.Now

// InitialValues builds the Form Value Set. Precedence: initial data, then the
// field default, then the kind's empty value.
func InitialValues(s *metadata.Schema, initial map[string]any) map[string]any {
	values := make(map[string]any, len(s.Fields))
	for _, f := range s.DataFields() {
		if v, ok := initial[f.Name]; ok && v != nil {
			values[f.Name] = v
			continue
		}
		if d, ok := fieldDefault(f); ok {
			values[f.Name] = d
			continue
		}
		values[f.Name] = render.Empty(f.Kind())
	}
	// Keep document keys the schema does not declare (name, docstatus, ...)
	// so the payload round-trips them.
	for k, v := range initial {
		if _, ok := values[k]; !ok {
			values[k] = v
		}
	}
	return values
}

func fieldDefault(f metadata.Field) (any, bool) {
	if f.Default == nil {
		return nil, false
	}
	if s, ok := f.Default.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, false
		}
		switch strings.ToLower(s) {
		case "today":
			if f.Kind() == metadata.KindDate {
				return now().Format("2006-01-02"), true
			}
		case "now":
			if f.Kind() == metadata.KindDatetime {
				return now().Format("2006-01-02 15:04:05"), true
			}
			if f.Kind() == metadata.KindTime {
				return now().Format("15:04:05"), true
			}
		}
		if f.Kind() == metadata.KindCheck || f.Kind().IsNumeric() {
			return render.Normalize(f.Kind(), s), true
		}
		return s, true
	}
	return render.Normalize(f.Kind(), f.Default), true
}
