package snowflake

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
)

var node *snowflake.Node

func init() {
	var err error
	node, err = snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}

	time.Sleep(2 * time.Millisecond)
}

type Snowflake int64

func New() Snowflake {
	return Snowflake(node.Generate().Int64())
}

func (s Snowflake) MarshalJSON() ([]byte, error) {
	str := strconv.FormatInt(int64(s), 10)
	return json.Marshal(str)
}

func (s *Snowflake) UnmarshalJSON(data []byte) error {
	var str string
	var num int64
	if err := json.Unmarshal(data, &str); err != nil {
		if err2 := json.Unmarshal(data, &num); err2 != nil {
			return fmt.Errorf("failed to unmarshal snowflake: %v", err)
		} else {
			*s = Snowflake(num)
			return nil
		}
	}

	val, err := strconv.ParseInt(str, 10, 64)
	if err != nil {
		return fmt.Errorf("failed to parse snowflake: %v", err)
	}

	*s = Snowflake(val)
	return nil
}
