package bunstore

import (
	"database/sql"
	"encoding/json"
	"sync"

	"github.com/mattn/go-sqlite3"

	"github.com/goliatone/go-component-search/catalog"
)

// DriverName is the database/sql driver registered with the catalog SQL
// functions attached to every connection.
const DriverName = "sqlite3_catalog"

var registerOnce sync.Once

func registerDriver() {
	registerOnce.Do(func() {
		sql.Register(DriverName, &sqlite3.SQLiteDriver{ConnectHook: registerFunctions})
	})
}

// registerFunctions exposes catalog.Evaluate's building blocks to SQL so a
// predicate has the same meaning in both places.
func registerFunctions(conn *sqlite3.SQLiteConn) error {
	funcs := map[string]any{
		"regexp":     sqlRegexp,
		"fp_match":   fpMatch,
		"fp_equals":  fpEquals,
		"fp_has":     fpHas,
		"fp_has_all": fpHasAll,
		"fp_in":      fpIn,
		"text_score": textScore,
	}
	for name, impl := range funcs {
		if err := conn.RegisterFunc(name, impl, true); err != nil {
			return err
		}
	}
	return nil
}

func truth(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func decodeList(raw string) []string {
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}

// sqlRegexp backs the REGEXP operator: value REGEXP expr calls
// regexp(expr, value).
func sqlRegexp(expr, value string) int64 {
	return truth(catalog.MatchPattern(expr, value))
}

func fpMatch(stored, expr string) int64 {
	return truth(catalog.PathMatchesPattern(catalog.ParseFamilyPath(stored), expr))
}

func fpEquals(stored, labels string) int64 {
	return truth(catalog.PathEqualsLabels(catalog.ParseFamilyPath(stored), decodeList(labels)))
}

func fpHas(stored, label string) int64 {
	return truth(catalog.PathHasLabel(catalog.ParseFamilyPath(stored), label))
}

func fpHasAll(stored, labels string) int64 {
	return truth(catalog.PathHasAllLabels(catalog.ParseFamilyPath(stored), decodeList(labels)))
}

func fpIn(stored, values string) int64 {
	return truth(catalog.PathInValues(catalog.ParseFamilyPath(stored), decodeList(values)))
}

func textScore(partNumber, manufacturer, partType, familyPath, keyword string) float64 {
	return catalog.TextScore(catalog.Component{
		PartNumber:       partNumber,
		ManufacturerName: manufacturer,
		PartType:         partType,
		FamilyPath:       catalog.ParseFamilyPath(familyPath),
	}, keyword)
}
