// Package logger implements the gRPC transport of the data logger.
//
// The service is described by a hand-written grpc.ServiceDesc whose messages
// are protobuf well-known types: requests and replies are google.protobuf.Struct
// and the status call takes google.protobuf.Empty. No generated code is needed
// on either side; clients call the methods through grpc.ClientConn.Invoke.
package logger
