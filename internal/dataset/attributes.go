// Hetgraph - Heterogeneous Graph Compiler for Recommendation Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hetgraph

package dataset

import (
	"fmt"
	"strconv"
	"strings"
)

// ageBuckets are the MovieLens-1M age codes and their ranges.
var ageBuckets = map[int]string{
	1:  "under_18",
	18: "18_24",
	25: "25_34",
	35: "35_44",
	45: "45_49",
	50: "50_55",
	56: "56_plus",
}

// AgeBucket labels a MovieLens age code. Codes outside the published set
// keep their numeric label.
func AgeBucket(code int) string {
	if label, ok := ageBuckets[code]; ok {
		return label
	}
	return strconv.Itoa(code)
}

// occupations are the MovieLens-1M occupation codes 0..20.
var occupations = []string{
	"other", "academic_educator", "artist", "clerical_admin", "college_grad_student",
	"customer_service", "doctor_health_care", "executive_managerial", "farmer", "homemaker",
	"k12_student", "lawyer", "programmer", "retired", "sales_marketing",
	"scientist", "self_employed", "technician_engineer", "tradesman_craftsman", "unemployed",
	"writer",
}

// OccupationName labels a MovieLens occupation code.
func OccupationName(code int) string {
	if code >= 0 && code < len(occupations) {
		return occupations[code]
	}
	return strconv.Itoa(code)
}

// YearBucket groups a release year by decade ("1990s"). Non-positive years
// have no bucket.
func YearBucket(year int) (string, bool) {
	if year <= 0 {
		return "", false
	}
	return fmt.Sprintf("%ds", year/10*10), true
}

// SplitValues splits a separator-joined multi-value column ("Action|Comedy"),
// trimming blanks and dropping empty parts.
func SplitValues(s, sep string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, sep)
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
