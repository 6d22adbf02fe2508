/*
This file is part of the AtomBPMN (R) project.
Copyright (c) 2025 Matreska Market LLC (ООО «Matreska Market»).
Authors: Matreska Team.

This project is dual-licensed under AGPL-3.0 and AtomBPMN Commercial License.
*/

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchTopic_Literal(t *testing.T) {
	assert.True(t, MatchTopic("orders.created", "orders.created"))
	assert.False(t, MatchTopic("orders.created", "orders.updated"))
}

func TestMatchTopic_SingleSegmentWildcard(t *testing.T) {
	assert.True(t, MatchTopic("orders.*.created", "orders.widgets.created"))
	assert.False(t, MatchTopic("orders.*.created", "orders.created"))
	assert.False(t, MatchTopic("orders.*.created", "orders.widgets.extra.created"))
}

func TestMatchTopic_DoubleStarGreedyOneOrMore(t *testing.T) {
	assert.True(t, MatchTopic("orders.**", "orders.widgets.created"))
	assert.True(t, MatchTopic("orders.**", "orders.created"))
	assert.False(t, MatchTopic("orders.**", "orders"))
}

func TestMatchTopic_CaseSensitive(t *testing.T) {
	assert.False(t, MatchTopic("Orders.created", "orders.created"))
}

func TestMatchFilter_RequiresAllKeys(t *testing.T) {
	filter := map[string]interface{}{"status": "failed"}
	assert.True(t, MatchFilter(filter, map[string]interface{}{"status": "failed", "extra": 1}))
	assert.False(t, MatchFilter(filter, map[string]interface{}{"status": "ok"}))
	assert.False(t, MatchFilter(filter, map[string]interface{}{}))
}

func TestMatchFilter_NestedMaps(t *testing.T) {
	filter := map[string]interface{}{
		"address": map[string]interface{}{"city": "NYC"},
	}
	data := map[string]interface{}{
		"address": map[string]interface{}{"city": "NYC", "zip": "10001"},
	}
	assert.True(t, MatchFilter(filter, data))

	data["address"] = map[string]interface{}{"city": "LA"}
	assert.False(t, MatchFilter(filter, data))
}

func TestFieldAt_NullSafeLookup(t *testing.T) {
	data := map[string]interface{}{
		"customer": map[string]interface{}{"address": map[string]interface{}{"city": "NYC"}},
	}
	v, ok := FieldAt(data, "customer.address.city")
	assert.True(t, ok)
	assert.Equal(t, "NYC", v)

	_, ok = FieldAt(data, "customer.missing.city")
	assert.False(t, ok)

	_, ok = FieldAt(data, "")
	assert.False(t, ok)
}

func TestStringFieldAt_MissingYieldsEmptyString(t *testing.T) {
	assert.Equal(t, "", StringFieldAt(map[string]interface{}{}, "missing"))
	assert.Equal(t, "abc", StringFieldAt(map[string]interface{}{"k": "abc"}, "k"))
}

func TestNumberAt_SkipsNonNumeric(t *testing.T) {
	data := map[string]interface{}{"amount": 42.5, "label": "x", "nothing": nil}

	v, ok := NumberAt(data, "amount")
	assert.True(t, ok)
	assert.Equal(t, 42.5, v)

	_, ok = NumberAt(data, "label")
	assert.False(t, ok)

	_, ok = NumberAt(data, "nothing")
	assert.False(t, ok)

	_, ok = NumberAt(data, "missing")
	assert.False(t, ok)
}
