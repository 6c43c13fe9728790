// Arbiter is a rule evaluation service.
//
// It registers named rule sets loaded from YAML documents and CSV decision
// tables, evaluates facts against them through a sandboxed expression
// language, and exposes evaluation over HTTP.
//
// Usage:
//
//	# Start the server with default configuration
//	arbiter serve
//
//	# Start with a custom configuration file
//	arbiter serve --config /etc/arbiter/config.yaml
//
//	# Validate rule documents
//	arbiter lint --dir rulesets/
//
//	# Evaluate one expression against a fact
//	arbiter eval 'fact.get("amount") > 100' --fact '{"amount": 250}'
//
//	# Show version information
//	arbiter version
package main

func main() {
	Execute()
}
