package openrtb_ext

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/buger/jsonparser"

	"github.com/brittanyzellman/prebid-tlx/logger"
)

// TransformKeywords turns a publisher keyword object like {"genre":["rock","pop"],"age":25}
// into the exchange's [{key, value:[...]}] list.
//
// Entries keep the order they have in the source document. Strings pass through, numbers are
// stringified, and anything else is dropped with a warning. Arrays keep their usable members,
// even if that leaves the value list empty.
func TransformKeywords(keywords json.RawMessage, log logger.Logger) ([]*ExtImpTripleliftKeyVal, error) {
	trimmed := bytes.TrimSpace(keywords)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	var kvs []*ExtImpTripleliftKeyVal
	err := jsonparser.ObjectEach(trimmed, func(key []byte, value []byte, dataType jsonparser.ValueType, _ int) error {
		k, err := jsonparser.ParseString(key)
		if err != nil {
			return err
		}
		param := "keywords." + k

		if dataType != jsonparser.Array {
			v, ok := keywordValue(param, value, dataType, log)
			if !ok {
				return nil
			}
			kvs = append(kvs, &ExtImpTripleliftKeyVal{Key: k, Values: []string{v}})
			return nil
		}

		values := make([]string, 0)
		jsonparser.ArrayEach(value, func(item []byte, itemType jsonparser.ValueType, _ int, _ error) {
			if v, ok := keywordValue(param, item, itemType, log); ok {
				values = append(values, v)
			}
		})
		kvs = append(kvs, &ExtImpTripleliftKeyVal{Key: k, Values: values})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return kvs, nil
}

func keywordValue(param string, value []byte, dataType jsonparser.ValueType, log logger.Logger) (string, bool) {
	switch dataType {
	case jsonparser.String:
		s, err := jsonparser.ParseString(value)
		if err != nil {
			log.Warnf("Unparseable string for param: %s", param)
			return "", false
		}
		return s, true
	case jsonparser.Number:
		f, err := strconv.ParseFloat(string(value), 64)
		if err != nil {
			log.Warnf("Unparseable number for param: %s", param)
			return "", false
		}
		return strconv.FormatFloat(f, 'f', -1, 64), true
	case jsonparser.Null:
		return "", false
	default:
		log.Warnf("Unsupported type for param: %s required type: String", param)
		return "", false
	}
}
