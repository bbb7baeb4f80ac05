package client

import "github.com/kuroko-shirai/embedis/v1/singleton"

// Именованные экземпляры клиента на процесс: основное хранилище
// эмбеддингов и хранилище VRE.
var (
	Default = singleton.New(newClient, closeClient)
	Vre     = singleton.New(newClient, closeClient)
)

func newClient() *Client {
	return New()
}

func closeClient(c *Client) {
	_ = c.Close()
}
