// Package gen generates typed schema handles from a table manifest.
//
// For every table of the manifest one Go file is written, holding:
//
//   - a model struct with one field per column, tagged for row scanning;
//   - a zero-size schema handle implementing sql.Schema, with one typed
//     accessor per column and one accessor per relation;
//   - a query constructor returning sql.Select for the handle.
//
// The generation pipeline follows this flow:
//
//	relq.yaml (schema.File)
//	        ↓
//	   schema.ValidateSchema
//	        ↓
//	   Generator (one jennifer file per table, in parallel)
//	        ↓
//	   goimports formatting, written to the target directory
//
// Example:
//
//	file, err := schema.LoadFile("relq.yaml")
//	if err != nil {
//	    return err
//	}
//	err = gen.Generate(ctx, file,
//	    gen.WithOutDir("internal/models"),
//	    gen.WithBackend(dialect.Postgres),
//	)
//
// # Error Handling
//
// The package uses structured error types:
//
//   - SchemaError: the manifest cannot be turned into valid Go code
//   - GenerationError: rendering or writing a file failed
//   - relq.ConfigError: an option was given an invalid value
//
// Use errors.Is with ErrInvalidSchema, ErrGenerationFailed or
// relq.ErrInvalidConfig to tell them apart.
package gen
