// Package codec turns byte pipe ends into item pipe ends for common formats.
//
// Every codec parses when sucked from and serializes when blown into:
//
//	people := codec.CSVOf[Person](pipeline.File("people.csv"), codec.CSVConfig{})
//	err := pipeline.Copy(ctx, people, codec.JSON[Person](pipeline.File("people.json"), codec.JSONConfig{Lines: true}))
//
// JSON goes through bytedance/sonic and YAML through goccy/go-yaml. CSV and
// XML use the standard library encoders; CSVOf binds rows to structs with
// go-viper/mapstructure.
package codec
