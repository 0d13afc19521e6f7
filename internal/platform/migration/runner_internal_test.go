// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

/*
TestConvertToPgx5DSN rewrites postgres URLs to the pgx5 scheme.
*/
func TestConvertToPgx5DSN(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://u:p@db:5432/bikes", "pgx5://u:p@db:5432/bikes"},
		{"postgresql://u:p@db/bikes?sslmode=disable", "pgx5://u:p@db/bikes?sslmode=disable"},
		{"pgx5://db/bikes", "pgx5://db/bikes"},
		{"host=db dbname=bikes", "host=db dbname=bikes"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, convertToPgx5DSN(tt.in))
		})
	}
}
