package model

import (
	"context"
	"fmt"
)

type ExecutionEnvironment struct {
	ID            int64                  `json:"id"`
	Name          string                 `json:"name"`
	FleetSlug     string                 `json:"fleet_slug"`
	Configuration map[string]interface{} `json:"configuration"`
}

func (e *ExecutionEnvironment) configString(key string) string {
	v, ok := e.Configuration[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// ASGName is the explicit asg_name from the configuration, or the fleet slug.
func (e *ExecutionEnvironment) ASGName() string {
	if name := e.configString("asg_name"); name != "" {
		return name
	}
	return e.FleetSlug
}

func (e *ExecutionEnvironment) InstanceType() string {
	return e.configString("instance_type")
}

func (st *Store) GetExecutionEnvironment(ctx context.Context, id int64) (*ExecutionEnvironment, error) {
	q, err := st.db.PrepareContext(ctx, "select id, name, fleet_slug, configuration from execution_environment where id=?")
	if err != nil {
		return nil, err
	}
	defer q.Close()
	env := new(ExecutionEnvironment)
	var raw []byte
	if err := q.QueryRowContext(ctx, id).Scan(&env.ID, &env.Name, &env.FleetSlug, &raw); err != nil {
		return nil, notFoundOr(err, "execution environment not found")
	}
	if err := decodeJSONColumn(raw, &env.Configuration); err != nil {
		return nil, &DBError{Err: err, Message: "execution environment configuration is not valid json"}
	}
	return env, nil
}
