package query

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/lib/pq"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

type Op string

const (
	OpEq  Op = "="
	OpGt  Op = ">"
	OpGte Op = ">="
	OpLt  Op = "<"
	OpLte Op = "<="
	OpIn  Op = "IN"
)

var opSuffixes = map[string]Op{
	"gt":  OpGt,
	"gte": OpGte,
	"lt":  OpLt,
	"lte": OpLte,
	"in":  OpIn,
}

// reserved parameter names never treated as field constraints
var reservedKeys = map[string]struct{}{
	"sort":   {},
	"fields": {},
	"q":      {},
	"limit":  {},
	"page":   {},
}

type Predicate struct {
	Field  string
	Op     Op
	Values []string
}

type SortField struct {
	Field string
	Desc  bool
}

// Query is an immutable retrieval request: predicates, sort spec, projection,
// free-text search and a pagination window. Every method takes a value
// receiver and returns a transformed copy, so the same Query value can be
// composed and rebuilt without hidden state.
type Query struct {
	preds  []Predicate
	sorts  []SortField
	fields []string
	search string
	page   int
	limit  int
}

// FromValues composes the full pipeline in its fixed order:
// filter, sort, projection, search, pagination.
func FromValues(v url.Values) Query {
	return Query{}.Filter(v).Sort(v).Project(v).Search(v).Paginate(v)
}

// Filter treats every non-reserved parameter as a field constraint. A
// bracketed suffix such as salary[gt] selects a comparison operator; the in
// operator takes a comma separated value list. Predicates are ordered by
// field and operator so the built statement is stable regardless of map
// iteration order.
func (q Query) Filter(v url.Values) Query {
	preds := make([]Predicate, 0, len(v))
	for key, vals := range v {
		if _, ok := reservedKeys[key]; ok {
			continue
		}
		if len(vals) == 0 || vals[0] == "" {
			continue
		}
		field, op := parseFieldOp(key)
		values := []string{vals[0]}
		if op == OpIn {
			values = strings.Split(vals[0], ",")
		}
		preds = append(preds, Predicate{Field: field, Op: op, Values: values})
	}
	sort.Slice(preds, func(i, j int) bool {
		if preds[i].Field != preds[j].Field {
			return preds[i].Field < preds[j].Field
		}
		return preds[i].Op < preds[j].Op
	})
	q.preds = preds
	return q
}

func parseFieldOp(key string) (string, Op) {
	open := strings.IndexByte(key, '[')
	if open > 0 && strings.HasSuffix(key, "]") {
		if op, ok := opSuffixes[key[open+1:len(key)-1]]; ok {
			return key[:open], op
		}
	}
	return key, OpEq
}

// Sort orders by the comma separated field list in the sort parameter, a
// leading dash selecting descending order. Posting date ascending is the
// default.
func (q Query) Sort(v url.Values) Query {
	raw := v.Get("sort")
	if raw == "" {
		q.sorts = []SortField{{Field: "postingDate"}}
		return q
	}
	sorts := make([]SortField, 0, 2)
	for _, f := range strings.Split(raw, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if strings.HasPrefix(f, "-") {
			sorts = append(sorts, SortField{Field: f[1:], Desc: true})
			continue
		}
		sorts = append(sorts, SortField{Field: f})
	}
	if len(sorts) == 0 {
		sorts = []SortField{{Field: "postingDate"}}
	}
	q.sorts = sorts
	return q
}

// Project restricts the selected fields to the comma separated fields
// parameter. With no parameter the table's default projection applies.
func (q Query) Project(v url.Values) Query {
	raw := v.Get("fields")
	if raw == "" {
		return q
	}
	fields := make([]string, 0, 4)
	for _, f := range strings.Split(raw, ",") {
		f = strings.TrimSpace(f)
		if f != "" {
			fields = append(fields, f)
		}
	}
	q.fields = fields
	return q
}

// Search takes the q parameter as a free text search term, dashes standing
// in for spaces.
func (q Query) Search(v url.Values) Query {
	q.search = strings.ReplaceAll(v.Get("q"), "-", " ")
	return q
}

// Paginate reads page and limit, falling back to page 1 and limit 10 when
// either is missing, non-numeric or not positive.
func (q Query) Paginate(v url.Values) Query {
	q.page = positiveIntOrDefault(v.Get("page"), DefaultPage)
	q.limit = positiveIntOrDefault(v.Get("limit"), DefaultLimit)
	return q
}

func positiveIntOrDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func (q Query) Page() int  { return q.page }
func (q Query) Limit() int { return q.limit }

func (q Query) Offset() int {
	return (q.page - 1) * q.limit
}

// TableSpec whitelists what a Query may touch on a given table. Secret
// columns are selected only when explicitly requested through the fields
// parameter; they are never part of the default projection and never
// filterable.
type TableSpec struct {
	Name         string
	Columns      map[string]string // api field -> filterable/sortable column
	Secret       map[string]string
	SelectExpr   map[string]string // optional select-time expression override per api field
	ArrayColumns map[string]bool   // columns holding a value set rather than a scalar
	Default      []string          // api fields selected when no projection is requested
	SearchVector string            // tsvector expression for free text search
	TieBreak     string            // appended to every sort for a deterministic order
}

type Statement struct {
	SQL  string
	Args []interface{}
}

// Build renders the composed Query into a single SELECT against the spec's
// table. The statement prepends a count(*) OVER() column carrying the total
// number of matches before the pagination window is applied. A predicate on
// a field the spec does not know yields WHERE FALSE: an empty result, not an
// error.
func (q Query) Build(spec TableSpec) Statement {
	var (
		args    []interface{}
		wheres  []string
		unknown bool
	)
	next := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	for _, p := range q.preds {
		col, ok := spec.Columns[p.Field]
		if !ok {
			unknown = true
			continue
		}
		switch {
		case spec.ArrayColumns[col] && p.Op == OpIn:
			wheres = append(wheres, fmt.Sprintf("%s && %s", col, next(pq.Array(p.Values))))
		case spec.ArrayColumns[col]:
			wheres = append(wheres, fmt.Sprintf("%s = ANY(%s)", next(p.Values[0]), col))
		case p.Op == OpIn:
			wheres = append(wheres, fmt.Sprintf("%s = ANY(%s)", col, next(pq.Array(p.Values))))
		default:
			wheres = append(wheres, fmt.Sprintf("%s %s %s", col, p.Op, next(p.Values[0])))
		}
	}
	if unknown {
		wheres = append(wheres, "FALSE")
	}
	if q.search != "" && spec.SearchVector != "" {
		wheres = append(wheres, fmt.Sprintf("%s @@ plainto_tsquery(%s)", spec.SearchVector, next(q.search)))
	}

	cols := q.selectColumns(spec)
	stmt := fmt.Sprintf("SELECT count(*) OVER() AS full_count, %s FROM %s", strings.Join(cols, ", "), spec.Name)
	if len(wheres) > 0 {
		stmt += " WHERE " + strings.Join(wheres, " AND ")
	}
	stmt += " ORDER BY " + strings.Join(q.orderColumns(spec), ", ")
	stmt += fmt.Sprintf(" LIMIT %s OFFSET %s", next(q.limit), next(q.offsetOrZero()))
	return Statement{SQL: stmt, Args: args}
}

func (q Query) offsetOrZero() int {
	if q.page < 1 || q.limit < 1 {
		return 0
	}
	return q.Offset()
}

func (q Query) selectColumns(spec TableSpec) []string {
	requested := q.fields
	if len(requested) == 0 {
		requested = spec.Default
	}
	cols := make([]string, 0, len(requested))
	for _, f := range requested {
		if col, ok := spec.Columns[f]; ok {
			cols = append(cols, spec.selectExpr(f, col))
			continue
		}
		if col, ok := spec.Secret[f]; ok && len(q.fields) > 0 {
			cols = append(cols, spec.selectExpr(f, col))
		}
	}
	if len(cols) == 0 {
		for _, f := range spec.Default {
			if col, ok := spec.Columns[f]; ok {
				cols = append(cols, spec.selectExpr(f, col))
			}
		}
	}
	return cols
}

// selectExpr renders the select-time expression for an api field, aliased
// back to the field name so scanned column names match the api vocabulary.
func (spec TableSpec) selectExpr(field, col string) string {
	if expr, ok := spec.SelectExpr[field]; ok {
		return fmt.Sprintf("%s AS %q", expr, field)
	}
	if field != col {
		return fmt.Sprintf("%s AS %q", col, field)
	}
	return col
}

func (q Query) orderColumns(spec TableSpec) []string {
	orders := make([]string, 0, len(q.sorts)+1)
	for _, s := range q.sorts {
		col, ok := spec.Columns[s.Field]
		if !ok {
			continue
		}
		dir := "ASC"
		if s.Desc {
			dir = "DESC"
		}
		orders = append(orders, col+" "+dir)
	}
	if spec.TieBreak != "" {
		orders = append(orders, spec.TieBreak+" ASC")
	}
	if len(orders) == 0 {
		orders = append(orders, "1")
	}
	return orders
}
