// Package psrpcore provides a sans-I/O implementation of the PowerShell
// Remoting Protocol (MS-PSRP): message encoding, CLIXML serialization,
// fragmentation, and the RunspacePool/Pipeline state machines, with no
// network I/O, no concurrency primitives, and no dependency on a
// particular transport.
//
// # Architecture
//
// The library is organized by concern, each importable on its own:
//
//	┌─────────────────────────────────────────────────────────┐
//	│  runspace/, pipeline/   RunspacePool + Pipeline state    │
//	├─────────────────────────────────────────────────────────┤
//	│  messages/              Typed PSRP message bodies        │
//	├─────────────────────────────────────────────────────────┤
//	│  fragment/              Message fragmentation/reassembly │
//	├─────────────────────────────────────────────────────────┤
//	│  clixml/, types/        CLIXML codec + the ValueModel     │
//	├─────────────────────────────────────────────────────────┤
//	│  psrpcrypto/            RSA key exchange + AES session    │
//	└─────────────────────────────────────────────────────────┘
//
// A caller owns the transport: feed inbound bytes to a runspace.Pool's
// ReceiveData, drain outbound bytes from its DataToSend, and drive the
// state machine forward by calling its methods and draining NextEvent.
// This package never blocks, spawns a goroutine, or reads a clock.
//
// # Quick Start
//
//	pool := runspace.NewClient(runspace.Config{MinRunspaces: 1, MaxRunspaces: 1})
//	if err := pool.Open(); err != nil {
//	    log.Fatal(err)
//	}
//	conn.Write(pool.DataToSend())
//	// ... read inbound bytes from conn into b ...
//	if err := pool.ReceiveData(b); err != nil {
//	    log.Fatal(err)
//	}
//	for {
//	    ev, ok := pool.NextEvent()
//	    if !ok {
//	        break
//	    }
//	    // react to ev.Kind
//	}
package psrpcore
