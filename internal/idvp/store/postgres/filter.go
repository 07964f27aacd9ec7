package postgres

import (
	"fmt"
	"strconv"
	"strings"

	"idvmgt/internal/idvp/models"
)

var filterColumns = map[string]string{
	models.FilterName:        "name",
	models.FilterDescription: "description",
	models.FilterType:        "idvp_type",
	models.FilterIsEnabled:   "is_enabled",
	models.FilterID:          "uuid",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// whereClause renders the tenant predicate plus the filter expressions with
// positional parameters starting at $1.
func whereClause(tenantID int, filter []models.Expression) (string, []any, error) {
	conds := []string{"tenant_id = $1"}
	args := []any{tenantID}
	for _, e := range filter {
		col, ok := filterColumns[e.Attribute]
		if !ok {
			return "", nil, fmt.Errorf("unsupported filter attribute %q", e.Attribute)
		}
		placeholder := "$" + strconv.Itoa(len(args)+1)
		switch e.Operator {
		case models.OpEquals:
			conds = append(conds, col+" = "+placeholder)
			args = append(args, e.Value)
		case models.OpStartsWith:
			conds = append(conds, col+" LIKE "+placeholder)
			args = append(args, likeEscaper.Replace(e.Value)+"%")
		case models.OpEndsWith:
			conds = append(conds, col+" LIKE "+placeholder)
			args = append(args, "%"+likeEscaper.Replace(e.Value))
		case models.OpContains:
			conds = append(conds, col+" LIKE "+placeholder)
			args = append(args, "%"+likeEscaper.Replace(e.Value)+"%")
		default:
			return "", nil, fmt.Errorf("unsupported filter operator %q", e.Operator)
		}
	}
	return strings.Join(conds, " AND "), args, nil
}
