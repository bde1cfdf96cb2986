// Package shared holds helpers used by more than one package.
//
// The testutil subpackage provides workbook fixtures built with excelize and a
// slog handler that captures records for assertions:
//
//	func TestSomething(t *testing.T) {
//	    input := testutil.WriteWorkbook(t, t.TempDir(), [][]interface{}{
//	        {"age", "city"},
//	        {30, nil},
//	    })
//	    logger, logs := testutil.NewTestLogger(t)
//	    ...
//	    assert.True(t, logs.ContainsMessage("Pipeline completed"))
//	}
package shared
