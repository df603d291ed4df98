// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package ddbstore

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/momeni/ddbmig/pkg/core/model"
)

// marshalItem encodes it with the attributevalue encoder. A model.Number
// is passed as an attributevalue.Number, so it keeps its N type and the
// exact digits instead of being sent as a string.
func marshalItem(it model.Item) (map[string]types.AttributeValue, error) {
	in := make(map[string]any, len(it))
	for k, v := range it {
		if n, ok := v.(model.Number); ok {
			v = attributevalue.Number(n)
		}
		in[k] = v
	}
	m, err := attributevalue.MarshalMap(in)
	if err != nil {
		return nil, fmt.Errorf("attributevalue.MarshalMap: %w", err)
	}
	return m, nil
}

// unmarshalItem decodes m with UseNumber, so N attributes are returned
// as model.Number values rather than being rounded into float64.
func unmarshalItem(m map[string]types.AttributeValue) (model.Item, error) {
	var out map[string]any
	err := attributevalue.UnmarshalMapWithOptions(m, &out,
		func(o *attributevalue.DecoderOptions) {
			o.UseNumber = true
		},
	)
	if err != nil {
		return nil, fmt.Errorf("attributevalue.UnmarshalMap: %w", err)
	}
	it := make(model.Item, len(out))
	for k, v := range out {
		if n, ok := v.(attributevalue.Number); ok {
			v = model.Number(n)
		}
		it[k] = v
	}
	return it, nil
}
