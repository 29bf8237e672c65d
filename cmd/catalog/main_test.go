package main

import (
	"testing"

	"reco-core/internal/usecase"

	"github.com/stretchr/testify/assert"
)

func TestCategories(t *testing.T) {
	assert.Equal(t, usecase.DefaultCategories, categories(""))
	assert.Equal(t, usecase.DefaultCategories, categories("   "))
	assert.Equal(t, []string{"Books > Fiction", "Groceries > Snacks"}, categories(" Books > Fiction ,, Groceries > Snacks"))
}
