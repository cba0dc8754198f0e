// Copyright (c) 2026 The Collective developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithContextFollowsInit(t *testing.T) {
	logger := WithContext("pkg", "test")

	var buf bytes.Buffer
	Init(&buf, 2)
	defer Init(&buf, 2)

	logger.Info("hello", "k", "v")
	out := buf.String()
	assert.True(t, strings.Contains(out, "hello"))
	assert.True(t, strings.Contains(out, "pkg=test"))
	assert.True(t, strings.Contains(out, "k=v"))
}

func TestVerbosityLevels(t *testing.T) {
	var buf bytes.Buffer
	Init(&buf, 1)
	defer Init(&buf, 2)

	Root().Info("hidden")
	assert.Empty(t, buf.String())

	Root().Warn("shown")
	assert.True(t, strings.Contains(buf.String(), "shown"))
}
