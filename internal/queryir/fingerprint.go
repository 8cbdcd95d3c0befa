package queryir

import (
	"fmt"

	"github.com/roach88/lnquery/internal/ir"
)

// Fingerprint computes a content-addressed identity for a query.
// Two queries with the same conditions, ordering, paging, projection and
// expand list produce the same fingerprint regardless of SQL formatting.
func Fingerprint(q ParsedQuery) (string, error) {
	conds := make(ir.IRArray, len(q.Conditions))
	for i, c := range q.Conditions {
		obj := ir.IRObject{
			"field":    ir.IRString(c.Field),
			"operator": ir.IRString(string(c.Operator)),
		}
		if c.Value != nil {
			obj["value"] = c.Value
		}
		if c.Value2 != nil {
			obj["value2"] = c.Value2
		}
		conds[i] = obj
	}

	obj := ir.IRObject{
		"service":    ir.IRString(q.Service),
		"conditions": conds,
		"fields":     stringArray(q.Fields),
		"expand":     stringArray(q.Expand),
	}
	if q.OrderBy != nil {
		obj["order_by"] = ir.IRObject{
			"field":     ir.IRString(q.OrderBy.Field),
			"direction": ir.IRString(string(q.OrderBy.Direction)),
		}
	}
	if q.Limit != nil {
		obj["limit"] = ir.IRInt(*q.Limit)
	}
	if q.Offset != nil {
		obj["offset"] = ir.IRInt(*q.Offset)
	}

	canonical, err := ir.MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("fingerprint: failed to marshal: %w", err)
	}
	return ir.HashWithDomain(ir.DomainQuery, canonical), nil
}

func stringArray(ss []string) ir.IRArray {
	arr := make(ir.IRArray, len(ss))
	for i, s := range ss {
		arr[i] = ir.IRString(s)
	}
	return arr
}
