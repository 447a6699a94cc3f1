package translator

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/pingcap/parser"
	"github.com/pingcap/parser/ast"
	"github.com/pingcap/parser/mysql"
	"github.com/pingcap/parser/opcode"
	_ "github.com/pingcap/parser/test_driver"

	"github.com/spektr-org/iplstats/engine"
	"github.com/spektr-org/iplstats/schema"
)

// ============================================================================
// SQL LOWERING — SELECT statement → QuerySpec
// ============================================================================
// Models trained on text-to-SQL often answer with a SELECT even when asked
// for JSON. The statement is parsed into an AST and lowered onto QuerySpec
// primitives; nothing is ever sent to a database.
//
//   WHERE     → filters (IN, NOT IN, LIKE '%x%', ranges, != '')
//   GROUP BY  → groupBy
//   SELECT    → metrics (SUM, COUNT, COUNT DISTINCT, AVG, MIN, MAX, x/y*k)
//   HAVING    → having (hidden metrics when not selected)
//   ORDER BY  → sortBy + sortMetric
//   LIMIT     → limit
//
// Repeated equality constraints on one column intersect. Anything else
// (joins, subqueries, CASE, OFFSET, OR across columns, AND of LIKEs on one
// column) is rejected with ErrUnsupportedSQL.
// ============================================================================

var (
	castPattern  = regexp.MustCompile(`::\s*[A-Za-z_][A-Za-z0-9_]*(\s*\(\s*\d+(\s*,\s*\d+)?\s*\))?`)
	ilikePattern = regexp.MustCompile(`(?i)\bilike\b`)
)

// SQLToQuerySpec parses a single SELECT statement and lowers it into a QuerySpec.
// The schema decides which ORDER BY columns sort chronologically.
func SQLToQuerySpec(query string, sch schema.Config) (engine.QuerySpec, error) {
	query = strings.TrimSpace(query)
	query = strings.TrimSpace(strings.TrimRight(query, "; \n\t"))
	query = castPattern.ReplaceAllString(query, "")
	query = ilikePattern.ReplaceAllString(query, "LIKE")

	switch kw := leadingKeyword(query); kw {
	case "select":
	case "with":
		return engine.QuerySpec{}, unsupported("WITH clause")
	default:
		return engine.QuerySpec{}, fmt.Errorf("%w: %s statement", ErrUnsafeQuery, strings.ToUpper(kw))
	}

	p := parser.New()
	p.SetSQLMode(mysql.ModeANSIQuotes)
	stmts, _, err := p.Parse(query, "", "")
	if err != nil {
		return engine.QuerySpec{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(stmts) != 1 {
		return engine.QuerySpec{}, fmt.Errorf("%w: expected one statement, got %d", ErrUnsafeQuery, len(stmts))
	}
	sel, ok := stmts[0].(*ast.SelectStmt)
	if !ok {
		return engine.QuerySpec{}, fmt.Errorf("%w: compound SELECT", ErrUnsupportedSQL)
	}

	l := &lowering{sch: sch, aliases: make(map[string]engine.Metric)}
	if err := l.lower(sel); err != nil {
		return engine.QuerySpec{}, err
	}
	return l.spec, nil
}

func leadingKeyword(query string) string {
	fields := strings.FieldsFunc(query, func(r rune) bool {
		return r == ' ' || r == '\n' || r == '\t' || r == '\r' || r == '('
	})
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

func unsupported(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedSQL, fmt.Sprintf(format, args...))
}

// ============================================================================
// STATEMENT
// ============================================================================

type lowering struct {
	sch     schema.Config
	spec    engine.QuerySpec
	aliases map[string]engine.Metric
	columns []string // plain columns in SELECT order
	hidden  int
}

func (l *lowering) lower(sel *ast.SelectStmt) error {
	if err := l.from(sel.From); err != nil {
		return err
	}
	if sel.Where != nil {
		if err := l.where(sel.Where); err != nil {
			return err
		}
	}
	if sel.GroupBy != nil {
		for _, item := range sel.GroupBy.Items {
			col, ok := columnOf(item.Expr)
			if !ok {
				return unsupported("GROUP BY expression")
			}
			l.spec.GroupBy = append(l.spec.GroupBy, col)
		}
	}
	if err := l.fields(sel.Fields); err != nil {
		return err
	}

	switch {
	case len(l.spec.Metrics) > 0:
	case len(l.spec.GroupBy) > 0:
		// GROUP BY without aggregates lists each combination once.
		l.spec.Metrics = []engine.Metric{{Name: "balls", Aggregation: "count", Hidden: true}}
		l.spec.Aggregation = "count"
	case sel.Distinct:
		l.spec.GroupBy = l.columns
		l.spec.Metrics = []engine.Metric{{Name: "balls", Aggregation: "count", Hidden: true}}
		l.spec.Aggregation = "count"
	default:
		l.spec.Aggregation = "list"
		l.spec.GroupBy = l.columns
		for _, c := range l.columns {
			if _, ok := l.sch.Measure(c); ok {
				l.spec.Measure = c
				break
			}
		}
	}

	if sel.Having != nil {
		if err := l.having(sel.Having.Expr); err != nil {
			return err
		}
	}
	if sel.OrderBy != nil && len(sel.OrderBy.Items) > 0 {
		if err := l.orderBy(sel.OrderBy.Items[0], sel.Fields); err != nil {
			return err
		}
	}
	if sel.Limit != nil {
		if sel.Limit.Offset != nil {
			return unsupported("OFFSET")
		}
		n, ok := numberOf(sel.Limit.Count)
		if !ok || n < 0 {
			return unsupported("LIMIT expression")
		}
		l.spec.Limit = int(n)
	}
	l.spec.Confidence = 0.8
	return nil
}

func (l *lowering) from(refs *ast.TableRefsClause) error {
	if refs == nil || refs.TableRefs == nil {
		return unsupported("SELECT without FROM")
	}
	join := refs.TableRefs
	if join.Right != nil {
		return unsupported("JOIN")
	}
	src, ok := join.Left.(*ast.TableSource)
	if !ok {
		return unsupported("FROM clause")
	}
	tbl, ok := src.Source.(*ast.TableName)
	if !ok {
		return unsupported("subquery in FROM")
	}
	if l.sch.Table != "" && !strings.EqualFold(tbl.Name.O, l.sch.Table) {
		return unsupported("unknown table %q", tbl.Name.O)
	}
	return nil
}

func (l *lowering) fields(list *ast.FieldList) error {
	if list == nil {
		return nil
	}
	for _, f := range list.Fields {
		if f.WildCard != nil {
			continue
		}
		if col, ok := columnOf(f.Expr); ok {
			l.columns = append(l.columns, col)
			continue
		}
		m, err := metricOf(f.Expr)
		if err != nil {
			return err
		}
		m.Name = f.AsName.O
		if m.Name == "" {
			m.Name = metricName(m)
		}
		m.Name = l.uniqueName(m.Name)
		l.aliases[strings.ToLower(m.Name)] = m
		l.spec.Metrics = append(l.spec.Metrics, m)
	}
	return nil
}

func (l *lowering) having(expr ast.ExprNode) error {
	switch e := unwrap(expr).(type) {
	case *ast.BinaryOperationExpr:
		if e.Op == opcode.LogicAnd {
			if err := l.having(e.L); err != nil {
				return err
			}
			return l.having(e.R)
		}
		op, ok := comparison(e.Op)
		if !ok {
			return unsupported("HAVING operator %s", e.Op)
		}
		left, right := e.L, e.R
		v, isNum := numberOf(right)
		if !isNum {
			if v, isNum = numberOf(left); !isNum {
				return unsupported("HAVING needs a numeric threshold")
			}
			left, op = right, flip(op)
		}
		name, err := l.metricRef(left)
		if err != nil {
			return err
		}
		l.spec.Having = append(l.spec.Having, engine.Condition{Metric: name, Op: op, Value: v})
		return nil
	}
	return unsupported("HAVING expression")
}

func (l *lowering) orderBy(item *ast.ByItem, list *ast.FieldList) error {
	expr := item.Expr
	if pos, ok := expr.(*ast.PositionExpr); ok {
		i := pos.N - 1
		if list == nil || i < 0 || i >= len(list.Fields) || list.Fields[i].WildCard != nil {
			return unsupported("ORDER BY position %d", pos.N)
		}
		f := list.Fields[i]
		if m, isMetric := l.aliases[strings.ToLower(f.AsName.O)]; isMetric && f.AsName.O != "" {
			return l.sortMetric(m.Name, item.Desc)
		}
		expr = f.Expr
	}

	if l.spec.Aggregation == "list" {
		col, ok := columnOf(expr)
		if !ok {
			return unsupported("ORDER BY expression")
		}
		if _, isMeasure := l.sch.Measure(col); isMeasure {
			l.spec.Measure = col
			l.spec.SortBy = direction("value", item.Desc)
		}
		return nil
	}

	if col, ok := columnOf(expr); ok {
		if m, isMetric := l.aliases[strings.ToLower(col)]; isMetric {
			return l.sortMetric(m.Name, item.Desc)
		}
		if l.isTemporal(col) {
			l.spec.SortBy = direction("date", item.Desc)
		} else {
			l.spec.SortBy = direction("alpha", item.Desc)
		}
		return nil
	}

	name, err := l.metricRef(expr)
	if err != nil {
		return err
	}
	return l.sortMetric(name, item.Desc)
}

func (l *lowering) sortMetric(name string, desc bool) error {
	l.spec.SortMetric = name
	l.spec.SortBy = direction("value", desc)
	return nil
}

// metricRef resolves an aggregate expression or alias to a metric name,
// adding a hidden metric when the SELECT list does not compute it.
func (l *lowering) metricRef(expr ast.ExprNode) (string, error) {
	if col, ok := columnOf(expr); ok {
		if m, isAlias := l.aliases[strings.ToLower(col)]; isAlias {
			return m.Name, nil
		}
		return "", unsupported("%q is not an aggregate", col)
	}
	want, err := metricOf(expr)
	if err != nil {
		return "", err
	}
	for _, m := range l.spec.Metrics {
		if sameMetric(m, want) {
			return m.Name, nil
		}
	}
	l.hidden++
	want.Name = l.uniqueName(fmt.Sprintf("%s_%d", metricName(want), l.hidden))
	want.Hidden = true
	l.spec.Metrics = append(l.spec.Metrics, want)
	return want.Name, nil
}

func (l *lowering) uniqueName(name string) string {
	taken := func(n string) bool {
		for _, m := range l.spec.Metrics {
			if strings.EqualFold(m.Name, n) {
				return true
			}
		}
		return false
	}
	if !taken(name) {
		return name
	}
	for i := 2; ; i++ {
		if n := fmt.Sprintf("%s_%d", name, i); !taken(n) {
			return n
		}
	}
}

func (l *lowering) isTemporal(col string) bool {
	if d, ok := l.sch.Dimension(col); ok && d.IsTemporal {
		return true
	}
	if m, ok := l.sch.Measure(col); ok && m.IsTemporal {
		return true
	}
	return col == "year" || col == "season" || col == "date"
}

func direction(prefix string, desc bool) string {
	if desc {
		return prefix + "_desc"
	}
	return prefix + "_asc"
}

// ============================================================================
// WHERE → FILTERS
// ============================================================================

func (l *lowering) where(expr ast.ExprNode) error {
	f := &l.spec.Filters
	switch e := unwrap(expr).(type) {
	case *ast.BinaryOperationExpr:
		switch e.Op {
		case opcode.LogicAnd:
			if err := l.where(e.L); err != nil {
				return err
			}
			return l.where(e.R)
		case opcode.LogicOr:
			return l.disjunction(e)
		case opcode.EQ, opcode.NE, opcode.GT, opcode.GE, opcode.LT, opcode.LE:
			return l.compare(e)
		}
		return unsupported("operator %s in WHERE", e.Op)

	case *ast.PatternInExpr:
		if e.Sel != nil {
			return unsupported("IN subquery")
		}
		col, ok := columnOf(e.Expr)
		if !ok {
			return unsupported("IN on an expression")
		}
		vals, err := literals(e.List)
		if err != nil {
			return err
		}
		if e.Not {
			addValues(&f.Exclude, col, vals...)
		} else {
			l.include(col, vals...)
		}
		return nil

	case *ast.PatternLikeExpr:
		col, pattern, err := likeOf(e)
		if err != nil {
			return err
		}
		sub, exact := likeSubstring(pattern)
		switch {
		case e.Not && exact:
			addValues(&f.Exclude, col, sub)
		case e.Not:
			return unsupported("NOT LIKE with wildcards")
		case exact:
			l.include(col, sub)
		default:
			return l.containsAny(col, sub)
		}
		return nil

	case *ast.BetweenExpr:
		if e.Not {
			return unsupported("NOT BETWEEN")
		}
		col, ok := columnOf(e.Expr)
		lo, okLo := numberOf(e.Left)
		hi, okHi := numberOf(e.Right)
		if !ok || !okLo || !okHi {
			return unsupported("BETWEEN needs a column and numeric bounds")
		}
		l.narrow(col, &lo, &hi)
		return nil

	case *ast.IsNullExpr:
		col, ok := columnOf(e.Expr)
		if !ok || !e.Not {
			return unsupported("IS NULL")
		}
		f.NonEmpty = appendUnique(f.NonEmpty, col)
		return nil

	case *ast.IsTruthExpr:
		col, ok := columnOf(e.Expr)
		if !ok {
			return unsupported("IS TRUE on an expression")
		}
		val := "0"
		if e.True == 1 {
			val = "1"
		}
		if e.Not {
			addValues(&f.Exclude, col, val)
		} else {
			l.include(col, val)
		}
		return nil

	case *ast.UnaryOperationExpr:
		if e.Op != opcode.Not {
			return unsupported("operator %s in WHERE", e.Op)
		}
		col, ok := columnOf(e.V)
		if !ok {
			return unsupported("NOT on an expression")
		}
		l.include(col, "0")
		return nil

	case *ast.ColumnNameExpr:
		l.include(e.Name.Name.O, "1")
		return nil
	}
	return unsupported("WHERE expression")
}

func (l *lowering) compare(e *ast.BinaryOperationExpr) error {
	op, _ := comparison(e.Op)
	col, ok := columnOf(e.L)
	lit := e.R
	if !ok {
		if col, ok = columnOf(e.R); !ok {
			return unsupported("comparison between expressions")
		}
		lit, op = e.L, flip(op)
	}

	f := &l.spec.Filters
	switch op {
	case "eq", "ne":
		val, ok := literalOf(lit)
		if !ok {
			return unsupported("comparison with a non-literal")
		}
		switch {
		case op == "ne" && val == "":
			f.NonEmpty = appendUnique(f.NonEmpty, col)
		case op == "ne":
			addValues(&f.Exclude, col, val)
		case val == "":
			return unsupported("equality with an empty string")
		default:
			l.include(col, val)
		}
		return nil
	}

	v, ok := numberOf(lit)
	if !ok {
		return unsupported("range comparison with a non-number")
	}
	switch op {
	case "gt":
		v = math.Nextafter(v, math.Inf(1))
		l.narrow(col, &v, nil)
	case "gte":
		l.narrow(col, &v, nil)
	case "lt":
		v = math.Nextafter(v, math.Inf(-1))
		l.narrow(col, nil, &v)
	case "lte":
		l.narrow(col, nil, &v)
	}
	return nil
}

// disjunction accepts ORs over a single column: a = 1 OR a = 2, a LIKE '%x%' OR a LIKE '%y%'.
func (l *lowering) disjunction(e *ast.BinaryOperationExpr) error {
	var terms []ast.ExprNode
	var flatten func(ast.ExprNode)
	flatten = func(n ast.ExprNode) {
		if b, ok := unwrap(n).(*ast.BinaryOperationExpr); ok && b.Op == opcode.LogicOr {
			flatten(b.L)
			flatten(b.R)
			return
		}
		terms = append(terms, unwrap(n))
	}
	flatten(e)

	var column, kind string
	var values []string
	for _, t := range terms {
		col, k, vals, err := disjunct(t)
		if err != nil {
			return err
		}
		if column == "" {
			column, kind = col, k
		}
		if col != column || k != kind {
			return unsupported("OR across different columns or operators")
		}
		values = append(values, vals...)
	}

	if kind == "contains" {
		return l.containsAny(column, values...)
	}
	l.include(column, values...)
	return nil
}

// include ANDs "col IN (vals)" onto the filters. Dimensions hold an any-of
// list per column, so a second constraint on the same column intersects
// with the first.
func (l *lowering) include(col string, vals ...string) {
	f := &l.spec.Filters
	prev := f.Dimensions[col]
	if len(prev) == 0 {
		addValues(&f.Dimensions, col, vals...)
		return
	}

	want := make(map[string]bool, len(vals))
	for _, v := range vals {
		want[valueKey(v)] = true
	}
	var kept []string
	for _, p := range prev {
		if want[valueKey(p)] {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		// No value satisfies both: keep one and exclude it so nothing matches.
		kept = []string{prev[0]}
		addValues(&f.Exclude, col, prev[0])
	}
	f.Dimensions[col] = kept
}

// containsAny adds an any-of substring filter. Contains lists are OR-ed, so
// a second LIKE on the same column cannot be expressed as an AND.
func (l *lowering) containsAny(col string, subs ...string) error {
	if len(l.spec.Filters.Contains[col]) > 0 {
		return unsupported("AND of LIKE patterns on %q", col)
	}
	addValues(&l.spec.Filters.Contains, col, subs...)
	return nil
}

// valueKey folds a filter value the way the engine compares it:
// case-insensitive, with numeric spellings unified.
func valueKey(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	switch v {
	case "true":
		return "1"
	case "false":
		return "0"
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return v
}

func disjunct(t ast.ExprNode) (col, kind string, vals []string, err error) {
	switch e := t.(type) {
	case *ast.BinaryOperationExpr:
		if e.Op != opcode.EQ {
			break
		}
		c, ok := columnOf(e.L)
		lit := e.R
		if !ok {
			c, ok = columnOf(e.R)
			lit = e.L
		}
		v, isLit := literalOf(lit)
		if ok && isLit {
			return c, "in", []string{v}, nil
		}
	case *ast.PatternInExpr:
		c, ok := columnOf(e.Expr)
		if ok && !e.Not && e.Sel == nil {
			vs, err := literals(e.List)
			return c, "in", vs, err
		}
	case *ast.PatternLikeExpr:
		if e.Not {
			break
		}
		c, pattern, err := likeOf(e)
		if err != nil {
			return "", "", nil, err
		}
		sub, exact := likeSubstring(pattern)
		if exact {
			return c, "in", []string{sub}, nil
		}
		return c, "contains", []string{sub}, nil
	}
	return "", "", nil, unsupported("OR term")
}

// narrow intersects a measure's range with [lo, hi].
func (l *lowering) narrow(col string, lo, hi *float64) {
	f := &l.spec.Filters
	if f.Ranges == nil {
		f.Ranges = make(map[string]engine.Range)
	}
	r := f.Ranges[col]
	if lo != nil && (r.Min == nil || *lo > *r.Min) {
		r.Min = engine.Float(*lo)
	}
	if hi != nil && (r.Max == nil || *hi < *r.Max) {
		r.Max = engine.Float(*hi)
	}
	f.Ranges[col] = r
}

func likeOf(e *ast.PatternLikeExpr) (string, string, error) {
	col, ok := columnOf(e.Expr)
	if !ok {
		return "", "", unsupported("LIKE on an expression")
	}
	pattern, ok := literalOf(e.Pattern)
	if !ok {
		return "", "", unsupported("LIKE with a non-literal pattern")
	}
	return col, pattern, nil
}

// likeSubstring strips % wildcards. exact is true when the pattern had none.
// Prefix and suffix patterns widen to substring matches.
func likeSubstring(pattern string) (sub string, exact bool) {
	if !strings.ContainsAny(pattern, "%_") {
		return pattern, true
	}
	return strings.Trim(pattern, "%"), false
}

// ============================================================================
// AGGREGATES → METRICS
// ============================================================================

func metricOf(expr ast.ExprNode) (engine.Metric, error) {
	switch e := unwrap(expr).(type) {
	case *ast.AggregateFuncExpr:
		return aggregateOf(e)

	case *ast.FuncCallExpr:
		switch e.FnName.L {
		case "round", "coalesce", "nullif", "abs":
			if len(e.Args) == 0 {
				break
			}
			return metricOf(e.Args[0])
		}
		return engine.Metric{}, unsupported("function %s", e.FnName.O)

	case *ast.FuncCastExpr:
		return metricOf(e.Expr)

	case *ast.BinaryOperationExpr:
		switch e.Op {
		case opcode.Mul:
			if k, ok := numberOf(e.R); ok {
				return scaled(e.L, k)
			}
			if k, ok := numberOf(e.L); ok {
				return scaled(e.R, k)
			}
		case opcode.Div:
			return ratioOf(e)
		}
		return engine.Metric{}, unsupported("arithmetic %s", e.Op)
	}
	return engine.Metric{}, unsupported("select expression")
}

func aggregateOf(e *ast.AggregateFuncExpr) (engine.Metric, error) {
	fn := strings.ToLower(e.F)
	var col string
	if len(e.Args) == 1 {
		col, _ = columnOf(e.Args[0])
	}

	switch fn {
	case "count":
		if e.Distinct && col != "" {
			return engine.Metric{Aggregation: "distinct", Measure: col}, nil
		}
		return engine.Metric{Aggregation: "count"}, nil
	case "sum":
		if col == "" {
			if len(e.Args) == 1 {
				if _, isLit := numberOf(e.Args[0]); isLit {
					return engine.Metric{Aggregation: "count"}, nil
				}
			}
			return engine.Metric{}, unsupported("SUM of an expression")
		}
		return engine.Metric{Aggregation: "sum", Measure: col}, nil
	case "avg", "min", "max":
		if col == "" {
			return engine.Metric{}, unsupported("%s of an expression", strings.ToUpper(fn))
		}
		return engine.Metric{Aggregation: fn, Measure: col}, nil
	}
	return engine.Metric{}, unsupported("aggregate %s", strings.ToUpper(fn))
}

func scaled(expr ast.ExprNode, k float64) (engine.Metric, error) {
	m, err := metricOf(expr)
	if err != nil {
		return m, err
	}
	if m.Scale == 0 {
		m.Scale = 1
	}
	m.Scale *= k
	return m, nil
}

// ratioOf lowers SUM(a) / COUNT(*) and SUM(a) / SUM(b) into rate metrics.
func ratioOf(e *ast.BinaryOperationExpr) (engine.Metric, error) {
	num, err := metricOf(e.L)
	if err != nil {
		return num, err
	}
	if k, ok := numberOf(e.R); ok && k != 0 {
		if num.Scale == 0 {
			num.Scale = 1
		}
		num.Scale /= k
		return num, nil
	}
	den, err := metricOf(e.R)
	if err != nil {
		return den, err
	}
	if num.Aggregation != "sum" || (den.Scale != 0 && den.Scale != 1) {
		return engine.Metric{}, unsupported("ratio of %s to %s", num.Aggregation, den.Aggregation)
	}

	rate := engine.Metric{Aggregation: "rate", Measure: num.Measure, Scale: num.Scale}
	switch den.Aggregation {
	case "count":
	case "sum":
		rate.Over = den.Measure
	default:
		return engine.Metric{}, unsupported("ratio of sum to %s", den.Aggregation)
	}
	return rate, nil
}

func metricName(m engine.Metric) string {
	switch m.Aggregation {
	case "count":
		return "balls"
	case "sum":
		return m.Measure
	case "rate":
		if m.Over != "" {
			return m.Measure + "_per_" + m.Over
		}
		return m.Measure + "_rate"
	}
	return m.Aggregation + "_" + m.Measure
}

func sameMetric(a, b engine.Metric) bool {
	scale := func(s float64) float64 {
		if s == 0 {
			return 1
		}
		return s
	}
	return a.Aggregation == b.Aggregation && a.Measure == b.Measure && a.Over == b.Over &&
		scale(a.Scale) == scale(b.Scale)
}

// ============================================================================
// AST HELPERS
// ============================================================================

func unwrap(expr ast.ExprNode) ast.ExprNode {
	for {
		p, ok := expr.(*ast.ParenthesesExpr)
		if !ok {
			return expr
		}
		expr = p.Expr
	}
}

func columnOf(expr ast.ExprNode) (string, bool) {
	c, ok := unwrap(expr).(*ast.ColumnNameExpr)
	if !ok {
		return "", false
	}
	return c.Name.Name.O, true
}

// literalOf renders a literal as a filter value: 'RCB' → "RCB", TRUE → "1".
func literalOf(expr ast.ExprNode) (string, bool) {
	if n, ok := numberOf(expr); ok {
		return strconv.FormatFloat(n, 'f', -1, 64), true
	}
	v, ok := unwrap(expr).(ast.ValueExpr)
	if !ok {
		return "", false
	}
	switch x := v.GetValue().(type) {
	case string:
		return x, true
	case []byte:
		return string(x), true
	}
	return "", false
}

func literals(list []ast.ExprNode) ([]string, error) {
	vals := make([]string, 0, len(list))
	for _, item := range list {
		v, ok := literalOf(item)
		if !ok {
			return nil, unsupported("non-literal in IN list")
		}
		vals = append(vals, v)
	}
	return vals, nil
}

func numberOf(expr ast.ExprNode) (float64, bool) {
	switch e := unwrap(expr).(type) {
	case *ast.UnaryOperationExpr:
		if e.Op == opcode.Minus {
			if n, ok := numberOf(e.V); ok {
				return -n, true
			}
		}
		return 0, false
	case ast.ValueExpr:
		switch x := e.GetValue().(type) {
		case int64:
			return float64(x), true
		case uint64:
			return float64(x), true
		case float64:
			return x, true
		case float32:
			return float64(x), true
		case bool:
			if x {
				return 1, true
			}
			return 0, true
		case fmt.Stringer:
			// DECIMAL literals such as 1.5
			f, err := strconv.ParseFloat(x.String(), 64)
			return f, err == nil
		}
	}
	return 0, false
}

func comparison(op opcode.Op) (string, bool) {
	switch op {
	case opcode.EQ:
		return "eq", true
	case opcode.NE:
		return "ne", true
	case opcode.GT:
		return "gt", true
	case opcode.GE:
		return "gte", true
	case opcode.LT:
		return "lt", true
	case opcode.LE:
		return "lte", true
	}
	return "", false
}

// flip mirrors an operator for literal-on-the-left comparisons.
func flip(op string) string {
	switch op {
	case "gt":
		return "lt"
	case "gte":
		return "lte"
	case "lt":
		return "gt"
	case "lte":
		return "gte"
	}
	return op
}

func addValues(m *map[string][]string, field string, vals ...string) {
	if *m == nil {
		*m = make(map[string][]string)
	}
	for _, v := range vals {
		(*m)[field] = appendUnique((*m)[field], v)
	}
}

func appendUnique(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}
