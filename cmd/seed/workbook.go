package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	sheetAreas  = "BusinessAreas"
	sheetGroups = "Groups"
	sheetAccess = "Access"
)

type areaRow struct {
	name        string
	description string
}

type accessRow struct {
	group     string
	area      string
	canRead   bool
	canWrite  bool
	canDelete bool
}

// plan is the security setup described by a seed workbook.
type plan struct {
	areas  []areaRow
	groups []string
	access []accessRow
}

// parseWorkbook reads the BusinessAreas (Name, Description), Groups (Name) and
// Access (Group, Business Area, Read, Write, Delete) sheets. The first row of
// each sheet is a header. Blank rows are skipped.
func parseWorkbook(f *excelize.File) (*plan, error) {
	p := &plan{}

	rows, err := sheetRows(f, sheetAreas)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		name := cell(row, 0)
		if name == "" {
			continue
		}
		p.areas = append(p.areas, areaRow{name: name, description: cell(row, 1)})
	}

	rows, err = sheetRows(f, sheetGroups)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if name := cell(row, 0); name != "" {
			p.groups = append(p.groups, name)
		}
	}

	rows, err = sheetRows(f, sheetAccess)
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		group, area := cell(row, 0), cell(row, 1)
		if group == "" && area == "" {
			continue
		}
		if group == "" || area == "" {
			return nil, fmt.Errorf("%s row %d: group and business area are required", sheetAccess, i+2)
		}
		a := accessRow{group: group, area: area}
		for col, dst := range []*bool{&a.canRead, &a.canWrite, &a.canDelete} {
			v, err := parseFlag(cell(row, col+2))
			if err != nil {
				return nil, fmt.Errorf("%s row %d: %w", sheetAccess, i+2, err)
			}
			*dst = v
		}
		p.access = append(p.access, a)
	}
	return p, nil
}

// sheetRows returns the rows of sheet without its header. A missing sheet
// yields no rows.
func sheetRows(f *excelize.File, sheet string) ([][]string, error) {
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", sheet, err)
	}
	if len(rows) <= 1 {
		return nil, nil
	}
	return rows[1:], nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseFlag(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "", "n", "no", "-":
		return false, nil
	case "y", "yes", "x":
		return true, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid permission flag %q", s)
	}
	return b, nil
}
