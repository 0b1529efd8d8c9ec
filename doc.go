// Package voicenotes is the composition root of the voice notes application.
//
// It connects the note domain (pkg/core), the dictation state machine
// (pkg/dictation) and the storage adapters (pkg/adapters/...) behind a small
// facade, following a hexagonal layout: the core never imports an adapter.
//
// Features:
//
//   - **Local-first**: notes live in a single JSON slot in a data directory
//     (or a SQLite database) and are rewritten whole on every change.
//   - **Continuous dictation**: an external recognizer (or any io.Reader)
//     streams the full running transcript into the open note.
//   - **Debounced auto-save**: edits are flushed after a quiet period and
//     always on close.
//   - **Plain-text export**: one `.txt` file per note named after its title.
//
// Usage:
//
//	app, err := voicenotes.New(ctx, "./.voicenotes",
//		voicenotes.WithLogger(logger),
//		voicenotes.WithRecognizer("my-recognizer", "--stream"),
//	)
//	if err != nil {
//		return err
//	}
//	defer app.Close()
//
//	note := app.CreateNote(ctx, "Groceries", "", "")
//	ed, _ := app.OpenEditor(ctx, note.ID)
//	defer ed.Close(ctx)
package voicenotes
