// Package testutil provides shared test doubles and helpers.
//
// FakeService is a scripted ai.Service: each operation plays back a queue of
// steps, and calls and peak concurrency are counted so tests can assert how
// the router and pipeline used it.
//
//	svc := testutil.NewFakeService("groq", ai.OpTranscribe).
//	    Script(ai.OpTranscribe, testutil.Fail(goerrors.Timeout("groq")), testutil.Text("hola"))
//
// T wraps testing.T for component lifecycles, and Redis starts an in-memory
// server with a connected client. FakeProfile and FakeTranscript generate
// seeded fixtures with gofakeit.
package testutil
