package queue

import (
	"errors"
	"fmt"
	"strconv"
)

var errMalformedSweepReply = errors.New("malformed sweep reply")

// Lua procedures reply with arrays whose elements come back as int64
// or string depending on how the script produced them.

func replyInt(v interface{}) (int64, error) {
	switch value := v.(type) {
	case int64:
		return value, nil
	case string:
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("malformed procedure reply element %q", value)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("malformed procedure reply element %v", v)
	}
}

func replyInts(result interface{}) ([]int64, error) {
	raw, ok := result.([]interface{})
	if !ok {
		return nil, fmt.Errorf("malformed procedure reply %v", result)
	}

	values := make([]int64, len(raw))
	for i, element := range raw {
		value, err := replyInt(element)
		if err != nil {
			return nil, err
		}
		values[i] = value
	}
	return values, nil
}
