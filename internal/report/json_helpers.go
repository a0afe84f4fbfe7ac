package report

import "encoding/json"

func marshalPair(a, b uint32) ([]byte, error) {
	return json.Marshal([2]uint32{a, b})
}

func unmarshalPair(data []byte) (uint32, uint32, error) {
	var pair [2]uint32
	if err := json.Unmarshal(data, &pair); err != nil {
		return 0, 0, err
	}
	return pair[0], pair[1], nil
}
