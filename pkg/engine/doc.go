// Package engine implements the rule evaluation runtime: a Registry maps
// URIs to Engine instances, an Engine administers named RuleSet
// registrations and opens Sessions against them, and a Session buffers
// facts and executes the matching loop.
//
// # Lifecycle
//
//	registry := engine.NewRegistry()
//	eng := engine.NewEngine(nil)
//	registry.Register("inmemory", eng)
//
//	rs, _ := rules.NewRuleSet("loans", ruleList, nil)
//	eng.RegisterRuleSet("loans", rs)
//
//	session, _ := eng.CreateSession("loans", &engine.SessionOptions{Stateless: true})
//	defer session.Close()
//	session.AddFacts(facts)
//	results, _ := session.Execute(ctx)
//
// Registries and Engines are safe for concurrent use. A Session is a
// single-owner, sequential-use object; independent sessions never
// interfere because each binds an immutable RuleSet snapshot and owns its
// buffers.
//
// Re-registering a name atomically replaces the previous RuleSet. Open
// sessions keep the snapshot they were created with; they are never
// re-bound.
package engine
