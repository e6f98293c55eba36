package dispatch

import (
	"equion/internal/service"
)

// commands is the full v1 command table. Handlers extract their parameters
// through Args and delegate to the service layer; nothing here touches
// storage or the subscription fabric directly.
var commands = map[string]command{
	"v1/signup":        {handler: signup},
	"v1/login":         {handler: login},
	"v1/logout":        {handler: logout},
	"v1/validateToken": {handler: validateToken},
	"v1/user":          {handler: user},
	"v1/updateUser":    {handler: updateUser},
	"v1/sets":          {handler: sets},
	"v1/set":           {handler: set},
	"v1/createSet":     {handler: createSet},
	"v1/updateSet":     {handler: updateSet},
	"v1/createSubset":  {handler: createSubset},
	"v1/updateSubset":  {handler: updateSubset},
	"v1/joinSet":       {handler: joinSet},
	"v1/leaveSet":      {handler: leaveSet},
	"v1/invites":       {handler: invites},
	"v1/createInvite":  {handler: createInvite},
	"v1/revokeInvite":  {handler: revokeInvite},
	"v1/messages":      {handler: messages},
	"v1/sendMessage":   {handler: sendMessage},
	"v1/updateMessage": {handler: updateMessage},
	"v1/typing":        {handler: typing},

	"v1/subscribe":             {handler: subscribe, streaming: true},
	"v1/unsubscribe":           {handler: unsubscribe, streaming: true},
	"v1/connectUserVoice":      {handler: connectUserVoice, streaming: true},
	"v1/disconnectUserVoice":   {handler: disconnectUserVoice, streaming: true},
	"v1/connectToVoiceChannel": {handler: connectToVoiceChannel, streaming: true},
	"v1/leaveVoiceChannel":     {handler: leaveVoiceChannel, streaming: true},
	"v1/ping":                  {handler: ping, streaming: true},
}

func signup(s *service.State, args Args, _ string) (map[string]any, error) {
	username, err := args.String("username")
	if err != nil {
		return nil, err
	}
	password, err := args.String("password")
	if err != nil {
		return nil, err
	}
	displayName, err := args.String("displayName")
	if err != nil {
		return nil, err
	}
	email, err := args.String("email")
	if err != nil {
		return nil, err
	}
	session, err := s.Signup(username, password, displayName, email)
	if err != nil {
		return nil, err
	}
	return map[string]any{"uid": session.UID, "token": session.Token}, nil
}

func login(s *service.State, args Args, _ string) (map[string]any, error) {
	username, err := args.String("username")
	if err != nil {
		return nil, err
	}
	password, err := args.String("password")
	if err != nil {
		return nil, err
	}
	session, err := s.Login(username, password)
	if err != nil {
		return nil, err
	}
	return map[string]any{"uid": session.UID, "token": session.Token}, nil
}

func logout(s *service.State, args Args, _ string) (map[string]any, error) {
	token, err := args.String("token")
	if err != nil {
		return nil, err
	}
	return nil, s.Logout(token)
}

func validateToken(s *service.State, args Args, _ string) (map[string]any, error) {
	token, err := args.String("token")
	if err != nil {
		return nil, err
	}
	uid, err := s.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	return map[string]any{"uid": uid}, nil
}

func user(s *service.State, args Args, _ string) (map[string]any, error) {
	uid, err := args.String("uid")
	if err != nil {
		return nil, err
	}
	u, err := s.GetUser(uid)
	if err != nil {
		return nil, err
	}
	return map[string]any{"user": u}, nil
}

func updateUser(s *service.State, args Args, _ string) (map[string]any, error) {
	token, err := args.String("token")
	if err != nil {
		return nil, err
	}
	displayName, err := args.OptString("displayName")
	if err != nil {
		return nil, err
	}
	email, err := args.OptString("email")
	if err != nil {
		return nil, err
	}
	bio, err := args.OptString("bio")
	if err != nil {
		return nil, err
	}
	return nil, s.UpdateUser(token, displayName, email, bio)
}

func sets(s *service.State, args Args, _ string) (map[string]any, error) {
	token, err := args.String("token")
	if err != nil {
		return nil, err
	}
	list, err := s.GetSets(token)
	if err != nil {
		return nil, err
	}
	return map[string]any{"sets": list}, nil
}

func set(s *service.State, args Args, _ string) (map[string]any, error) {
	token, err := args.String("token")
	if err != nil {
		return nil, err
	}
	id, err := args.String("id")
	if err != nil {
		return nil, err
	}
	result, err := s.GetSet(token, id)
	if err != nil {
		return nil, err
	}
	return map[string]any{"set": result}, nil
}

func createSet(s *service.State, args Args, _ string) (map[string]any, error) {
	token, err := args.String("token")
	if err != nil {
		return nil, err
	}
	name, err := args.String("name")
	if err != nil {
		return nil, err
	}
	icon, err := args.OptString("icon")
	if err != nil {
		return nil, err
	}
	id, err := s.CreateSet(token, name, icon)
	if err != nil {
		return nil, err
	}
	return map[string]any{"id": id}, nil
}

func updateSet(s *service.State, args Args, _ string) (map[string]any, error) {
	token, err := args.String("token")
	if err != nil {
		return nil, err
	}
	setID, err := args.String("set")
	if err != nil {
		return nil, err
	}
	name, err := args.OptString("name")
	if err != nil {
		return nil, err
	}
	icon, err := args.OptString("icon")
	if err != nil {
		return nil, err
	}
	del, err := args.OptBool("delete")
	if err != nil {
		return nil, err
	}
	return nil, s.UpdateSet(token, setID, name, icon, del)
}

func createSubset(s *service.State, args Args, _ string) (map[string]any, error) {
	token, err := args.String("token")
	if err != nil {
		return nil, err
	}
	setID, err := args.String("set")
	if err != nil {
		return nil, err
	}
	name, err := args.String("name")
	if err != nil {
		return nil, err
	}
	id, err := s.CreateSubset(token, setID, name)
	if err != nil {
		return nil, err
	}
	return map[string]any{"id": id}, nil
}

func updateSubset(s *service.State, args Args, _ string) (map[string]any, error) {
	token, err := args.String("token")
	if err != nil {
		return nil, err
	}
	subsetID, err := args.String("subset")
	if err != nil {
		return nil, err
	}
	name, err := args.OptString("name")
	if err != nil {
		return nil, err
	}
	del, err := args.OptBool("delete")
	if err != nil {
		return nil, err
	}
	return nil, s.UpdateSubset(token, subsetID, name, del)
}

func joinSet(s *service.State, args Args, _ string) (map[string]any, error) {
	token, err := args.String("token")
	if err != nil {
		return nil, err
	}
	code, err := args.String("set")
	if err != nil {
		return nil, err
	}
	id, err := s.JoinSet(token, code)
	if err != nil {
		return nil, err
	}
	return map[string]any{"id": id}, nil
}

func leaveSet(s *service.State, args Args, _ string) (map[string]any, error) {
	token, err := args.String("token")
	if err != nil {
		return nil, err
	}
	setID, err := args.String("set")
	if err != nil {
		return nil, err
	}
	return nil, s.LeaveSet(token, setID)
}

func invites(s *service.State, args Args, _ string) (map[string]any, error) {
	token, err := args.String("token")
	if err != nil {
		return nil, err
	}
	setID, err := args.String("set")
	if err != nil {
		return nil, err
	}
	list, err := s.GetInvites(token, setID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"invites": list}, nil
}

func createInvite(s *service.State, args Args, _ string) (map[string]any, error) {
	token, err := args.String("token")
	if err != nil {
		return nil, err
	}
	setID, err := args.String("set")
	if err != nil {
		return nil, err
	}
	duration, err := args.OptInt("duration")
	if err != nil {
		return nil, err
	}
	code, err := args.OptString("code")
	if err != nil {
		return nil, err
	}
	created, err := s.CreateInvite(token, setID, duration, code)
	if err != nil {
		return nil, err
	}
	return map[string]any{"code": created}, nil
}

func revokeInvite(s *service.State, args Args, _ string) (map[string]any, error) {
	token, err := args.String("token")
	if err != nil {
		return nil, err
	}
	setID, err := args.String("set")
	if err != nil {
		return nil, err
	}
	inviteID, err := args.String("invite")
	if err != nil {
		return nil, err
	}
	return nil, s.RevokeInvite(token, setID, inviteID)
}

func messages(s *service.State, args Args, _ string) (map[string]any, error) {
	token, err := args.String("token")
	if err != nil {
		return nil, err
	}
	subsetID, err := args.String("subset")
	if err != nil {
		return nil, err
	}
	before, err := args.OptString("before")
	if err != nil {
		return nil, err
	}
	limit, err := args.OptInt("limit")
	if err != nil {
		return nil, err
	}
	list, err := s.Messages(token, subsetID, before, limit)
	if err != nil {
		return nil, err
	}
	return map[string]any{"messages": list}, nil
}

func sendMessage(s *service.State, args Args, _ string) (map[string]any, error) {
	token, err := args.String("token")
	if err != nil {
		return nil, err
	}
	subsetID, err := args.String("subset")
	if err != nil {
		return nil, err
	}
	content, err := args.String("message")
	if err != nil {
		return nil, err
	}
	attachmentName, err := args.OptString("attachment.name")
	if err != nil {
		return nil, err
	}
	attachmentData, err := args.OptString("attachment.data")
	if err != nil {
		return nil, err
	}
	var attachment *service.Attachment
	if attachmentName != nil {
		attachment = &service.Attachment{Name: *attachmentName, Data: attachmentData}
	}
	return nil, s.SendMessage(token, subsetID, content, attachment)
}

func updateMessage(s *service.State, args Args, _ string) (map[string]any, error) {
	token, err := args.String("token")
	if err != nil {
		return nil, err
	}
	messageID, err := args.String("message")
	if err != nil {
		return nil, err
	}
	content, err := args.OptString("content")
	if err != nil {
		return nil, err
	}
	del, err := args.OptBool("delete")
	if err != nil {
		return nil, err
	}
	return nil, s.UpdateMessage(token, messageID, content, del)
}

func typing(s *service.State, args Args, _ string) (map[string]any, error) {
	token, err := args.String("token")
	if err != nil {
		return nil, err
	}
	subsetID, err := args.String("subset")
	if err != nil {
		return nil, err
	}
	return nil, s.SetTyping(token, subsetID)
}

func subscribe(s *service.State, args Args, addr string) (map[string]any, error) {
	token, err := args.String("token")
	if err != nil {
		return nil, err
	}
	setID, err := args.String("set")
	if err != nil {
		return nil, err
	}
	return nil, s.Subscribe(token, setID, addr)
}

func unsubscribe(s *service.State, args Args, addr string) (map[string]any, error) {
	token, err := args.String("token")
	if err != nil {
		return nil, err
	}
	setID, err := args.String("set")
	if err != nil {
		return nil, err
	}
	return nil, s.Unsubscribe(token, setID, addr)
}

func connectUserVoice(s *service.State, args Args, addr string) (map[string]any, error) {
	token, err := args.String("token")
	if err != nil {
		return nil, err
	}
	peerID, err := args.String("peerId")
	if err != nil {
		return nil, err
	}
	return nil, s.ConnectUserVoice(token, peerID, addr)
}

func disconnectUserVoice(s *service.State, args Args, _ string) (map[string]any, error) {
	token, err := args.String("token")
	if err != nil {
		return nil, err
	}
	return nil, s.DisconnectUserVoice(token)
}

func connectToVoiceChannel(s *service.State, args Args, _ string) (map[string]any, error) {
	token, err := args.String("token")
	if err != nil {
		return nil, err
	}
	channelID, err := args.String("channel")
	if err != nil {
		return nil, err
	}
	return nil, s.ConnectToVoiceChannel(token, channelID)
}

func leaveVoiceChannel(s *service.State, args Args, _ string) (map[string]any, error) {
	token, err := args.String("token")
	if err != nil {
		return nil, err
	}
	return nil, s.LeaveVoiceChannel(token)
}

func ping(_ *service.State, _ Args, _ string) (map[string]any, error) {
	return map[string]any{"event": "v1/pong"}, nil
}
