package graph

import (
	"regexp"
	"sort"
	"strconv"
)

// DefaultDuplicateThreshold is the ratio of duplicated to distinct primary key
// signatures above which inference gives up.
const DefaultDuplicateThreshold = 1.0

// InferenceOptions tunes implied-constraint inference.
type InferenceOptions struct {
	// DuplicateThreshold aborts inference when duplicated primary key
	// signatures exceed DuplicateThreshold times the distinct signatures.
	// Nil selects DefaultDuplicateThreshold; zero bails out on any duplicate.
	DuplicateThreshold *float64

	// ExcludeColumns lists patterns, matched against column names, of
	// columns that are never treated as implied foreign keys.
	ExcludeColumns []*regexp.Regexp
}

// InferenceResult reports what inference did.
type InferenceResult struct {
	Constraints        []*Constraint
	DuplicatePrimaries int  // Primary key signatures that replaced an earlier one
	Signatures         int  // Distinct single-column primary key signatures
	BailedOut          bool // True when too many signatures were duplicated
}

type keySignature struct {
	name   string
	typ    string
	length int
}

// InferImplied adds implied constraints for columns that share name, type
// and length with another table's single-column primary key but are not
// already foreign keys. It must run after Link so that declared foreign
// keys are not mistaken for candidates.
func InferImplied(d *Database, opts InferenceOptions) *InferenceResult {
	threshold := DefaultDuplicateThreshold
	if opts.DuplicateThreshold != nil {
		threshold = *opts.DuplicateThreshold
	}

	tables := d.Tables()
	primaries := make(map[keySignature]*Table)
	result := &InferenceResult{}

	for _, t := range tables {
		pk := t.PrimaryKey()
		if len(pk) != 1 {
			continue
		}
		sig := signatureOf(pk[0])
		if _, exists := primaries[sig]; exists {
			result.DuplicatePrimaries++
		}
		primaries[sig] = t
	}
	result.Signatures = len(primaries)

	var candidates []*Column
	for _, t := range tables {
		for _, c := range t.Columns() {
			if c.IsForeignKey() || excluded(c, opts.ExcludeColumns) {
				continue
			}
			candidates = append(candidates, c)
		}
	}

	if float64(result.DuplicatePrimaries) > threshold*float64(result.Signatures) {
		result.BailedOut = true
		return result
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if n := compareTables(candidates[i].Table, candidates[j].Table); n != 0 {
			return n < 0
		}
		return fold(candidates[i].Name) < fold(candidates[j].Name)
	})

	for _, child := range candidates {
		parentTable, ok := primaries[signatureOf(child)]
		if !ok || parentTable == child.Table {
			continue
		}
		parent := parentTable.PrimaryKey()[0]
		if parent.ParentConstraint(child) != nil {
			continue
		}

		constraint := &Constraint{
			Name:          "implied:" + child.Table.Name + "." + child.Name,
			ChildTable:    child.Table,
			ParentTable:   parentTable,
			ChildColumns:  []*Column{child},
			ParentColumns: []*Column{parent},
			Implied:       true,
		}
		key := fold(constraint.Name)
		if _, taken := child.Table.constraints[key]; taken {
			constraint.Name += "#" + strconv.Itoa(child.Position)
			key = fold(constraint.Name)
		}
		child.Table.constraints[key] = constraint
		addEdge(child, parent, constraint)

		result.Constraints = append(result.Constraints, constraint)
	}

	return result
}

func signatureOf(c *Column) keySignature {
	return keySignature{name: fold(c.Name), typ: fold(c.Type), length: c.Length}
}

func excluded(c *Column, patterns []*regexp.Regexp) bool {
	for _, re := range patterns {
		if re.MatchString(c.Name) {
			return true
		}
	}
	return false
}
