package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/roach88/lnquery/internal/record"
)

// JSON normalizes an OData body. Accepted shapes:
//
//	{"value": [...]}                  collection (v4)
//	{"d": {"results": [...]}}         collection (v2)
//	{"d": {...}} or {...}             single entity
//	[...]                             bare collection
//	{"error": {...}}                  remote error, returned as *ProtocolFault
//
// Objects keep their key order. Annotation keys ("@odata.*") are not copied
// into records.
func JSON(body string, limit *int) (record.RecordSet, error) {
	top, err := decodeOrdered(body)
	if err != nil {
		return record.RecordSet{}, &FormatError{Reason: "malformed JSON", Err: err}
	}

	rs := record.RecordSet{Kind: record.KindREST}
	switch v := top.(type) {
	case []any:
		rs.Records = toRecords(v)
		return finish(rs, 0, limit), nil

	case *record.Record:
		if errVal, ok := v.Get("error"); ok {
			return record.RecordSet{}, errorFault(errVal)
		}
		if ctx, ok := v.Get("@odata.context"); ok {
			rs.Context, _ = ctx.(string)
		}
		total := 0
		if count, ok := v.Get("@odata.count"); ok {
			total = countValue(count)
		}

		if values, ok := v.Get("value"); ok {
			list, isList := values.([]any)
			if !isList {
				return record.RecordSet{}, &FormatError{Reason: fmt.Sprintf("value is %T, not an array", values)}
			}
			rs.Records = toRecords(list)
			return finish(rs, total, limit), nil
		}

		if d, ok := v.Get("d"); ok && v.Len() == 1 {
			if inner, isObj := d.(*record.Record); isObj {
				if results, ok := inner.Get("results"); ok {
					if list, isList := results.([]any); isList {
						if count, ok := inner.Get("__count"); ok {
							total = countValue(count)
						}
						rs.Records = toRecords(list)
						return finish(rs, total, limit), nil
					}
				}
				rs.Records = []*record.Record{stripAnnotations(inner)}
				return finish(rs, 0, limit), nil
			}
		}

		rs.Records = []*record.Record{stripAnnotations(v)}
		return finish(rs, 0, limit), nil
	}
	return record.RecordSet{}, &FormatError{Reason: fmt.Sprintf("top-level JSON %T is not an object or array", top)}
}

// errorFault reads the OData error object. The message may be a string (v4)
// or {"lang": ..., "value": ...} (v2).
func errorFault(v any) *ProtocolFault {
	pf := &ProtocolFault{API: record.KindREST}
	obj, ok := v.(*record.Record)
	if !ok {
		if s, isStr := v.(string); isStr {
			pf.Message = s
		}
		return pf
	}
	if code, ok := obj.Get("code"); ok {
		pf.Code = fmt.Sprint(code)
	}
	if msg, ok := obj.Get("message"); ok {
		switch m := msg.(type) {
		case string:
			pf.Message = m
		case *record.Record:
			if val, ok := m.Get("value"); ok {
				pf.Message = fmt.Sprint(val)
			}
		}
	}
	return pf
}

func countValue(v any) int {
	switch c := v.(type) {
	case json.Number:
		if n, err := c.Int64(); err == nil {
			return int(n)
		}
	case string:
		if n, err := strconv.Atoi(c); err == nil {
			return n
		}
	}
	return 0
}

func toRecords(list []any) []*record.Record {
	out := make([]*record.Record, 0, len(list))
	for _, item := range list {
		if r, ok := item.(*record.Record); ok {
			out = append(out, stripAnnotations(r))
			continue
		}
		r := record.New()
		r.Set("value", item)
		out = append(out, r)
	}
	return out
}

func stripAnnotations(r *record.Record) *record.Record {
	out := record.New()
	for _, k := range r.Keys() {
		if strings.HasPrefix(k, "@odata.") || k == "__metadata" {
			continue
		}
		v, _ := r.Get(k)
		out.Set(k, v)
	}
	return out
}

// decodeOrdered decodes a single JSON document into *record.Record for
// objects, []any for arrays, and json.Number for numbers.
func decodeOrdered(body string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("trailing data after JSON document")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	switch delim {
	case '{':
		r := record.New()
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, _ := keyTok.(string)
			val, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			r.Set(key, val)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return r, nil
	case '[':
		list := []any{}
		for dec.More() {
			val, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			list = append(list, val)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return list, nil
	}
	return nil, fmt.Errorf("unexpected delimiter %q", delim)
}
