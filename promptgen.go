// Package promptgen resolves hierarchical placeholder templates into concrete
// sets of generated text variants, each paired with a seed value.
//
// Templates are YAML documents whose bodies contain {Placeholder} tokens:
//
//	masterpiece, {prompt}, {Lighting[all]}, {Pose[standing,sitting]}
//
// A resolution pass merges a document's inheritance chain, resolves every
// placeholder's variation sources, applies an optional theme, and expands
// chunk fragments. A generation pass then produces the combinatorial (or
// randomly sampled) cross-product of all placeholder candidates, assigns
// seeds, substitutes tokens, and normalizes the output text.
//
// # Basic Usage
//
// Create an engine over a document store and run both passes:
//
//	store, _ := promptgen.NewFilesystemStore("./prompts")
//	engine := promptgen.MustNew(promptgen.WithStore(store))
//
//	resolved, err := engine.Resolve(ctx, "templates/portrait.yaml", promptgen.ResolveOptions{})
//	result, err := engine.GenerateResolved(ctx, resolved, promptgen.GenerateOptions{
//	    Mode:     promptgen.ModeCombinatorial,
//	    SeedMode: promptgen.SeedProgressive,
//	    BaseSeed: 100,
//	})
//	for _, v := range result.Variants {
//	    fmt.Println(v.Seed, v.Prompt)
//	}
//
// # Placeholder Syntax
//
// Plain placeholders select from a variation pool, optionally narrowed by a
// bracketed selector:
//
//	{Pose}                     all entries
//	{Pose[standing,sitting]}   explicit keys
//	{Pose[range:1-3]}          index range
//	{Pose[random:2]}           random sample
//	{Pose[all$2]}              iteration weight 2 (inner loop)
//
// Chunk placeholders inject a reusable parameterized fragment, optionally
// overriding fields from a multi-field pool:
//
//	{Person}
//	{Person with outfit=Outfits[random:1]}
//
// The tokens {prompt}, {negprompt}, and {loras} are reserved: the first two
// mark inheritance injection points, the third is filled from the merged
// "loras" parameter.
//
// # Documents
//
// Four document kinds are recognized: templates (carry a {prompt} injection
// point), prompts (leaf content injected into a template), chunks (reusable
// fragments with named fields), and themes (wholesale import overrides).
// Variation pools are plain YAML mappings loaded through a template's
// imports. Documents chain through the "implements" field; parameters,
// imports, chunks, and defaults shallow-merge child-over-parent while bodies
// inject through {prompt}.
//
// # Configuration
//
// Customize the engine with functional options:
//
//	engine, _ := promptgen.New(
//	    promptgen.WithStore(store),
//	    promptgen.WithIndexBase(0),
//	    promptgen.WithStrictSelectors(true),
//	    promptgen.WithLogger(logger),
//	)
package promptgen
