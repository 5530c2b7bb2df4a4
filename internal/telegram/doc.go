// Package telegram holds the outbound side of the telegram notification
// channel: message types that render Bot API payloads, the transport client
// that performs the call, and the decoder for its response.
//
// # Messages
//
// Every message type (Message, Location, Contact, Poll) implements Sendable.
// A message is built fresh for each dispatch, mutated only by the channel
// (chat id, credential override) and discarded afterwards.
//
// # Transport
//
// Client is the seam the channel talks to. BotClient is the production
// implementation on top of telebot's raw API call; tests stub the interface
// and may return pre-decoded maps instead of raw bytes, which DecodeResponse
// passes through unchanged.
package telegram
