// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pointer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/dublinbikes/pkg/pointer"
)

func TestToAndVal(t *testing.T) {
	p := pointer.To(42)
	assert.Equal(t, 42, pointer.Val(p))
	assert.Equal(t, "", pointer.Val[string](nil))
}

func TestNonEmpty(t *testing.T) {
	assert.Nil(t, pointer.NonEmpty(nil))
	assert.Nil(t, pointer.NonEmpty(pointer.To("   ")))
	assert.Equal(t, "https://x/a.png", *pointer.NonEmpty(pointer.To("  https://x/a.png ")))
}
