package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/parley/internal/compiler"
)

func TestParser_Condition(t *testing.T) {
	expr, err := compiler.NewParser(`1 + 2 * 3 == 7 || !ready`).ParseCondition()
	require.NoError(t, err)

	or, ok := expr.(*compiler.Binary)
	require.True(t, ok)
	assert.Equal(t, compiler.TokenOr, or.Op)

	eq, ok := or.Left.(*compiler.Binary)
	require.True(t, ok)
	assert.Equal(t, compiler.TokenEq, eq.Op)

	sum, ok := eq.Left.(*compiler.Binary)
	require.True(t, ok)
	assert.Equal(t, compiler.TokenPlus, sum.Op)
	_, ok = sum.Right.(*compiler.Binary)
	assert.True(t, ok, "multiplication binds tighter than addition")

	_, ok = or.Right.(*compiler.Unary)
	assert.True(t, ok)
}

func TestParser_ConditionMemberAccess(t *testing.T) {
	expr, err := compiler.NewParser(`@node.actor.name == "Guard"`).ParseCondition()
	require.NoError(t, err)

	eq := expr.(*compiler.Binary)
	name, ok := eq.Left.(*compiler.Member)
	require.True(t, ok)
	assert.Equal(t, "name", name.Name)
	actor, ok := name.Receiver.(*compiler.Member)
	require.True(t, ok)
	assert.Equal(t, "actor", actor.Name)
	_, ok = actor.Receiver.(*compiler.CurrentNode)
	assert.True(t, ok)
}

func TestParser_PlainRoutine(t *testing.T) {
	tree, err := compiler.NewParser(`
		int count = 1;
		count += 2;
		if (count > 2) { log("big"); } else log("small");
		;
	`).ParseRoutine()
	require.NoError(t, err)
	assert.False(t, tree.Scheduled())
	require.Len(t, tree.Body, 3)

	decl, ok := tree.Body[0].(*compiler.Declaration)
	require.True(t, ok)
	assert.Equal(t, "int", decl.Type)
	assert.Equal(t, "count", decl.Name)

	assign, ok := tree.Body[1].(*compiler.Assignment)
	require.True(t, ok)
	assert.Equal(t, compiler.TokenPlusAssign, assign.Op)

	ifStmt, ok := tree.Body[2].(*compiler.If)
	require.True(t, ok)
	assert.NotNil(t, ifStmt.Else)
}

func TestParser_ScheduledBlocks(t *testing.T) {
	tree, err := compiler.NewParser(`
		@begin
			wait(@lease);
		@end(first, second)
		@begin(first)
			log("after");
		@end()
	`).ParseRoutine()
	require.NoError(t, err)
	require.True(t, tree.Scheduled())
	require.Len(t, tree.Blocks, 2)

	assert.Empty(t, tree.Blocks[0].EntryFlags)
	require.Len(t, tree.Blocks[0].ExitFlags, 2)
	assert.Equal(t, "first", tree.Blocks[0].ExitFlags[0].Name)
	assert.Equal(t, "second", tree.Blocks[0].ExitFlags[1].Name)
	assert.Len(t, tree.Blocks[0].Body, 1)

	require.Len(t, tree.Blocks[1].EntryFlags, 1)
	assert.Equal(t, "first", tree.Blocks[1].EntryFlags[0].Name)
	assert.Empty(t, tree.Blocks[1].ExitFlags)
}

func TestParser_Errors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		message string
		line    int
	}{
		{"nested begin", "@begin @begin @end @end", "scheduled blocks cannot be nested", 1},
		{"end without begin", "log(1);\n@end", "@end without matching @begin", 2},
		{"unclosed block", "@begin\nlog(1);", "scheduled block is never closed with @end", 1},
		{"loose statement after blocks", "@begin @end\nlog(1);", "statements must be inside scheduled blocks when markers are used", 2},
		{"loose statement before blocks", "log(1);\n@begin @end", "statements must be inside scheduled blocks when markers are used", 1},
		{"marker inside braces", "@begin { @end } @end", "scheduled block markers must appear at the top level of a routine", 1},
		{"bad flag list", "@begin(1) @end", `scheduled block flag list must be a comma separated list of identifiers, got "1"`, 1},
		{"non-call statement", "1 + 2;", "only calls can be used as statements", 1},
		{"missing semicolon", "log(1)", "expected ;, got end of input", 1},
		{"lexer error", "log(\"open);", "unterminated string", 1},
		{"unclosed brace", "{ log(1);", "unclosed '{'", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compiler.NewParser(tt.source).ParseRoutine()
			require.Error(t, err)
			var cerr *compiler.CompileError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tt.message, cerr.Message)
			assert.Equal(t, tt.line, cerr.Line)
		})
	}
}

func TestParser_ConditionErrors(t *testing.T) {
	_, err := compiler.NewParser("@begin").ParseCondition()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scheduled blocks are not allowed in conditions")

	_, err = compiler.NewParser("a b").ParseCondition()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected end of condition")
}
