/*
Package parley is a dialogue interpreter for branching, form-driven
conversations: scripted content authored as a graph of nodes, executed one
turn at a time against a variable store.

A chapter declares its nodes and default variables. AI-message nodes speak
(with a typing delay and template interpolation), input and choice and
multi-input nodes pause the engine until the user responds. Submitted values
land in the variable store, optionally derive further variables through a
sandboxed expression language, and steer branching through per-node
conditions.

# Concept

The engine alternates between two phases. While advancing, it walks
successor edges and emits AI messages. When it reaches a node that needs the
user it parks in the waiting phase; exactly one submit action matching the
node's kind resumes it. Reaching a node with no successor completes the
conversation, and a terminal node may name a follow-up chapter that Continue
splices into the running session without losing accumulated variables.

Expressions ("userAge < 35", "income * 12") are evaluated by a built-in
interpreter over the variable store only. There is no access to the host
program, and every evaluation failure degrades softly: conditions come back
false, computed variables are skipped, template spans render empty.

# Usage

	ch, err := chapter.DecodeFile("onboarding/chapter_1.json")
	if err != nil {
		log.Fatal(err)
	}

	sess, err := parley.New(ch)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	if err := sess.Start(ctx); err != nil {
		log.Fatal(err)
	}

	for {
		node, waiting := sess.CurrentNode()
		if !waiting {
			break
		}
		// Collect input appropriate to node.Kind, then one of:
		//   sess.Submit(ctx, value)
		//   sess.Choose(ctx, optionID)
		//   sess.SubmitForm(ctx, values)
		_ = node
	}

The pkg/adapters tree provides an HTTP front end and session stores; cmd/parley
wraps the same core in a terminal chat runner.
*/
package parley
